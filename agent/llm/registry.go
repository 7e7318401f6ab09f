package llm

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/northfiber/concierge/agent/contract"
	promptx "github.com/northfiber/concierge/agent/prompt"
)

type registryImpl struct {
	text   contractx.TextModel
	lookup contractx.ToolCallingModel
	intent contractx.IntentModel
}

func (r *registryImpl) Text() contractx.TextModel {
	return r.text
}

func (r *registryImpl) Lookup() contractx.ToolCallingModel {
	return r.lookup
}

func (r *registryImpl) Intent() contractx.IntentModel {
	return r.intent
}

// NewRegistry builds the three model bindings the handlers depend on: the
// plain verifier binding, the verifier binding with the lookup tool attached,
// and the router's constrained intent binding on the raw SDK client.
func NewRegistry(ctx context.Context, cfg Config, client *openaisdk.Client) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	verifierCfg := cfg.OpenRouterFor(BindingVerifier)
	verifierChatModel, err := verifierCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create verifier model: %v", contractx.ErrModelInvoke, err)
	}

	text, err := newTextModel(ctx, verifierChatModel, prompts.Verifier)
	if err != nil {
		return nil, err
	}
	lookup, err := newToolCallingModel(ctx, verifierChatModel, prompts.Verifier)
	if err != nil {
		return nil, err
	}

	routerModel, routerTemp := cfg.ModelFor(BindingRouter)
	intent, err := newIntentModel(client, routerModel, routerTemp, prompts.Router)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		text:   text,
		lookup: lookup,
		intent: intent,
	}, nil
}
