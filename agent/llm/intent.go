package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	contractx "github.com/northfiber/concierge/agent/contract"
)

// intentModel constrains the model to pick exactly one labeled intent. It
// talks to the SDK client directly: every intent is exposed as a function
// tool carrying a single "reason" argument.
type intentModel struct {
	client       *openaisdk.Client
	model        string
	temperature  float32
	systemPrompt string
}

func newIntentModel(client *openaisdk.Client, model string, temperature float32, systemPrompt string) (*intentModel, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: intent model name is required", contractx.ErrValidation)
	}
	return &intentModel{
		client:       client,
		model:        strings.TrimSpace(model),
		temperature:  temperature,
		systemPrompt: systemPrompt,
	}, nil
}

func (m *intentModel) Select(
	ctx context.Context,
	prompt string,
	options []contractx.IntentOption,
) (contractx.IntentChoice, error) {
	if len(options) == 0 {
		return contractx.IntentChoice{}, fmt.Errorf("%w: no intent options", contractx.ErrValidation)
	}

	tools := make([]openaisdk.ChatCompletionToolParam, 0, len(options))
	for _, opt := range options {
		tools = append(tools, openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        opt.Name,
				Description: openaisdk.String(opt.Description),
				Parameters: shared.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"reason": map[string]any{
							"type":        "string",
							"description": "Brief reason for selecting this route.",
						},
					},
					"required": []string{"reason"},
				},
			},
		})
	}

	resp, err := m.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(m.model),
		Temperature: openaisdk.Float(float64(m.temperature)),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(m.systemPrompt),
			openaisdk.UserMessage(prompt),
		},
		Tools: tools,
	})
	if err != nil {
		return contractx.IntentChoice{}, fmt.Errorf("%w: intent invoke: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.IntentChoice{}, fmt.Errorf("%w: intent response has no choices", contractx.ErrModelInvoke)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		// The model chatted instead of selecting; the router applies its
		// fallback policy to the free text.
		return contractx.IntentChoice{Content: strings.TrimSpace(msg.Content)}, nil
	}

	call := msg.ToolCalls[0]
	var args struct {
		Reason string `json:"reason"`
	}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		// Unparseable reasons are dropped, not fatal; the selection stands.
		_ = json.Unmarshal([]byte(raw), &args)
	}

	return contractx.IntentChoice{
		Name:   strings.TrimSpace(call.Function.Name),
		Reason: strings.TrimSpace(args.Reason),
	}, nil
}
