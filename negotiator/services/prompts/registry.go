package prompts

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// RegistryProvider fetches prompt templates from a remote prompt
// registry, so the persona and sampling parameters can change without a
// redeploy. The fetched template renders exactly like a local one.
type RegistryProvider struct {
	client *resty.Client
}

type registryTemplate struct {
	Model      string                 `json:"model"`
	Parameters map[string]interface{} `json:"parameters"`
	System     string                 `json:"system"`
}

func NewRegistryProvider(baseURL, apiKey string) *RegistryProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey)
	return &RegistryProvider{client: client}
}

func (p *RegistryProvider) GetFormatted(ctx context.Context, projectID, name, environment string, transcript []PromptMessage) (*FormattedPrompt, error) {
	var tpl registryTemplate
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"project": projectID,
			"name":    name,
		}).
		SetQueryParam("environment", environment).
		SetResult(&tpl).
		Get("/projects/{project}/templates/{name}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("prompt registry: %s", resp.Status())
	}

	local := NewTemplateProvider(PersonaTemplate{
		Model:      tpl.Model,
		Parameters: tpl.Parameters,
		System:     tpl.System,
	})
	return local.GetFormatted(ctx, projectID, name, environment, transcript)
}

func (p *RegistryProvider) RestoreSession(negotiationID string) *Session {
	return &Session{SessionID: negotiationID}
}
