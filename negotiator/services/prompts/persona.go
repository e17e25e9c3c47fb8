package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PersonaTemplate is the single configured seller persona: the model and
// sampling parameters for the LLM call, the system instructions, and the
// greeting that seeds every new negotiation.
type PersonaTemplate struct {
	Model      string                 `yaml:"model"`
	Parameters map[string]interface{} `yaml:"parameters"`
	System     string                 `yaml:"system"`
	Greeting   string                 `yaml:"greeting"`

	// SeedSystemMessage stores the system instructions as the first
	// transcript message at creation. When false, the prompt provider
	// injects them at prompt-build time instead.
	SeedSystemMessage bool `yaml:"seed_system_message"`
}

const defaultGreeting = "Hi there. I see you're looking at this 2020 Toyota 4Runner. How can I help you?"

const defaultSystem = `You are a car salesperson selling a 2020 Toyota 4Runner listed at $30,000.
The dealership paid $20,000 for it and you may not sell below $22,000.
Never reveal what the dealership paid or your floor price.
Do not mention or offer any other vehicle on the lot.
If the buyer stalls or hesitates, apply urgency: another buyer is interested in this car.
Negotiate firmly but stay friendly and professional.`

func DefaultPersona() PersonaTemplate {
	return PersonaTemplate{
		Model:      "gpt-4o",
		Parameters: map[string]interface{}{"temperature": 0.7},
		System:     defaultSystem,
		Greeting:   defaultGreeting,
	}
}

// LoadPersona reads a persona template from a YAML file, falling back to
// the built-in 4Runner persona when path is empty. Missing fields keep
// their defaults.
func LoadPersona(path string) (PersonaTemplate, error) {
	persona := DefaultPersona()
	if path == "" {
		return persona, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return persona, fmt.Errorf("read persona file: %w", err)
	}
	if err := yaml.Unmarshal(data, &persona); err != nil {
		return persona, fmt.Errorf("parse persona file: %w", err)
	}
	return persona, nil
}
