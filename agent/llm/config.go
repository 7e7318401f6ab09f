package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/northfiber/concierge/agent/contract"
	openrouterx "github.com/northfiber/concierge/pkg/openrouter"
)

// Binding names a model role. Each handler declares which binding it needs;
// nothing here is a package-level singleton.
type Binding string

const (
	BindingVerifier Binding = "verifier"
	BindingRouter   Binding = "router"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	VerifierModel       string  `envconfig:"VERIFIER_MODEL" split_words:"true"`
	RouterModel         string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	VerifierTemperature float32 `envconfig:"VERIFIER_TEMPERATURE" split_words:"true" default:"-1"`
	RouterTemperature   float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// ModelFor returns the model name and temperature for a binding, falling back
// to the defaults when no override is set.
func (c Config) ModelFor(binding Binding) (string, float32) {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch binding {
	case BindingVerifier:
		if v := strings.TrimSpace(c.VerifierModel); v != "" {
			modelName = v
		}
		if c.VerifierTemperature >= 0 {
			temp = c.VerifierTemperature
		}
	case BindingRouter:
		if v := strings.TrimSpace(c.RouterModel); v != "" {
			modelName = v
		}
		if c.RouterTemperature >= 0 {
			temp = c.RouterTemperature
		}
	}
	return modelName, temp
}

// OpenRouterFor materializes the OpenRouter config for a binding.
func (c Config) OpenRouterFor(binding Binding) openrouterx.Config {
	modelName, temp := c.ModelFor(binding)
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
