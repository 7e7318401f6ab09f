package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/northfiber/concierge/agent/contract"
)

// textModel is the plain conversational binding, a compiled prompt->model
// graph with no tools attached.
type textModel struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func newTextModel(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*textModel, error) {
	runner, err := compileChatGraph(ctx, chatModel, systemPrompt, "concierge.text_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile text graph: %v", contractx.ErrModelInvoke, err)
	}
	return &textModel{runner: runner}, nil
}

func (m *textModel) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := m.runner.Invoke(ctx, map[string]any{"input": prompt})
	if err != nil {
		return "", fmt.Errorf("%w: text invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: empty model reply", contractx.ErrModelInvoke)
	}
	return strings.TrimSpace(msg.Content), nil
}

func compileChatGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile chat graph: %w", err)
	}
	return runner, nil
}
