package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	contractx "github.com/northfiber/concierge/agent/contract"
)

// lookupToolInfo describes the single capability the verifier binding may
// request.
func lookupToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: contractx.ToolCustomerLookup,
		Desc: "Looks up customer information based on their account ID. " +
			"Use this only when the user provides an account ID or when customer " +
			"details are needed to proceed with a specific request.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"account_id": {Type: schema.String, Desc: "The customer's account ID", Required: true},
		}),
	}
}

// toolCallingModel is the verifier binding: same compiled graph, with the
// lookup tool attached. It returns either plain assistant text or a tool
// invocation request.
type toolCallingModel struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func newToolCallingModel(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
) (*toolCallingModel, error) {
	bound, err := chatModel.WithTools([]*schema.ToolInfo{lookupToolInfo()})
	if err != nil {
		return nil, fmt.Errorf("%w: bind lookup tool: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileChatGraph(ctx, bound, systemPrompt, "concierge.lookup_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile lookup graph: %v", contractx.ErrModelInvoke, err)
	}
	return &toolCallingModel{runner: runner}, nil
}

func (m *toolCallingModel) Generate(ctx context.Context, prompt string) (contractx.Turn, error) {
	msg, err := m.runner.Invoke(ctx, map[string]any{"input": prompt})
	if err != nil {
		return contractx.Turn{}, fmt.Errorf("%w: lookup invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.Turn{}, fmt.Errorf("%w: empty model reply", contractx.ErrModelInvoke)
	}

	if len(msg.ToolCalls) > 0 {
		call, err := toLookupCall(msg.ToolCalls[0])
		if err != nil {
			return contractx.Turn{}, err
		}
		return contractx.ToolCallTurn(call), nil
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return contractx.Turn{}, fmt.Errorf("%w: model returned neither text nor tool call", contractx.ErrModelInvoke)
	}
	return contractx.AssistantTurn(content), nil
}

func toLookupCall(call schema.ToolCall) (contractx.ToolCall, error) {
	name := strings.TrimSpace(call.Function.Name)
	if name != contractx.ToolCustomerLookup {
		return contractx.ToolCall{}, fmt.Errorf("%w: unexpected tool %q", contractx.ErrModelInvoke, name)
	}

	var args struct {
		AccountID string `json:"account_id"`
	}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return contractx.ToolCall{}, fmt.Errorf("%w: invalid lookup args: %v", contractx.ErrModelInvoke, err)
		}
	}

	id := strings.TrimSpace(call.ID)
	if id == "" {
		id = uuid.NewString()
	}

	return contractx.ToolCall{
		ID:       id,
		Name:     name,
		Argument: strings.TrimSpace(args.AccountID),
	}, nil
}
