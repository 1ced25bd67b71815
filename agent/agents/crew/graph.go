package crew

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/finnieassistant/finnie/agent/contract"
	promptx "github.com/finnieassistant/finnie/agent/prompt"
)

func chatTemplate(p promptx.Agent) einoprompt.ChatTemplate {
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(p.System),
		schema.UserMessage(p.Task),
	)
}

func compileClassifierGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	p promptx.Agent,
) (compose.Runnable[map[string]any, contractx.ClassifyResponse], error) {
	parser := schema.NewMessageJSONParser[classifierLLMOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, contractx.ClassifyResponse]()
	if err := graph.AddChatTemplateNode("prompt", chatTemplate(p)); err != nil {
		return nil, fmt.Errorf("add classifier prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add classifier model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_category",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (contractx.ClassifyResponse, error) {
			return parseClassification(ctx, parser, msg), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add classifier parse node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "parse_category"},
		{"parse_category", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add classifier edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("crew.classifier_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile classifier graph: %w", err)
	}
	return runner, nil
}

func compilePipelineGraph(
	ctx context.Context,
	agentType contractx.AgentType,
	p promptx.Agent,
	toolLoop func(context.Context, []*schema.Message) (contractx.PipelineResponse, error),
) (compose.Runnable[map[string]any, contractx.PipelineResponse], error) {
	graph := compose.NewGraph[map[string]any, contractx.PipelineResponse]()
	if err := graph.AddChatTemplateNode("prompt", chatTemplate(p)); err != nil {
		return nil, fmt.Errorf("add pipeline prompt node: %w", err)
	}
	if err := graph.AddLambdaNode("tool_loop", compose.InvokableLambda(toolLoop)); err != nil {
		return nil, fmt.Errorf("add pipeline tool loop node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add pipeline edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "tool_loop"); err != nil {
		return nil, fmt.Errorf("add pipeline edge prompt->tool_loop: %w", err)
	}
	if err := graph.AddEdge("tool_loop", compose.END); err != nil {
		return nil, fmt.Errorf("add pipeline edge tool_loop->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(fmt.Sprintf("crew.%s_pipeline", agentType)))
	if err != nil {
		return nil, fmt.Errorf("compile %s pipeline graph: %w", agentType, err)
	}
	return runner, nil
}
