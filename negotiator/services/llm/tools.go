package llm

// ResolveNegotiationToolName is the function the model invokes instead
// of replying in free text once a price has been mutually agreed.
const ResolveNegotiationToolName = "resolve_negotiation"

var resolveNegotiationTool = Tool{
	Type: "function",
	Function: ToolFunction{
		Name: ResolveNegotiationToolName,
		Description: "Resolve the negotiation with a final negotiated price from the user. Only use this tool if you " +
			"have mutually agreed to a price with the user.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"final_price": map[string]interface{}{
					"type":        "number",
					"description": "The user's final agreed upon price.",
				},
			},
			"required":             []string{"final_price"},
			"additionalProperties": false,
		},
	},
}
