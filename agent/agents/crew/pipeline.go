package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/finnieassistant/finnie/agent/contract"
	promptx "github.com/finnieassistant/finnie/agent/prompt"
	toolx "github.com/finnieassistant/finnie/agent/tool"
	"github.com/finnieassistant/finnie/pkg/metrics"
	"github.com/rs/zerolog/log"
)

type pipelineImpl struct {
	agentType contractx.AgentType
	model     einomodel.BaseChatModel
	execute   toolx.Executor
	maxRounds int
	runner    compose.Runnable[map[string]any, contractx.PipelineResponse]
}

func newPipeline(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	p promptx.Agent,
	gateway contractx.ToolGateway,
	maxRounds int,
) (*pipelineImpl, error) {
	if maxRounds <= 0 {
		return nil, fmt.Errorf("%w: max tool rounds must be > 0", contractx.ErrValidation)
	}

	tools, executor := toolx.BuildForAgent(agentType, gateway)

	var boundModel einomodel.BaseChatModel = chatModel
	if len(tools) > 0 {
		toolModel, err := chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for pipeline=%s: %w", contractx.ErrModelInvoke, agentType, err)
		}
		boundModel = toolModel
	}

	pl := &pipelineImpl{
		agentType: agentType,
		model:     boundModel,
		execute:   executor,
		maxRounds: maxRounds,
	}

	runner, err := compilePipelineGraph(ctx, agentType, p, pl.runToolLoop)
	if err != nil {
		return nil, fmt.Errorf("%w: compile pipeline graph: %w", contractx.ErrModelInvoke, err)
	}
	pl.runner = runner
	return pl, nil
}

func (p *pipelineImpl) Run(ctx context.Context, req contractx.PipelineRequest) (contractx.PipelineResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return contractx.PipelineResponse{}, contractx.ErrInvalidQuery
	}
	return p.runner.Invoke(ctx, map[string]any{"query": query})
}

// runToolLoop calls the model until it answers without tool calls. Each round
// of tool calls is executed and fed back as tool messages.
func (p *pipelineImpl) runToolLoop(ctx context.Context, messages []*schema.Message) (contractx.PipelineResponse, error) {
	var results []contractx.ToolResult

	for round := 0; ; round++ {
		msg, err := p.model.Generate(ctx, messages)
		metrics.RecordModelCall(string(p.agentType), err)
		if err != nil {
			return contractx.PipelineResponse{}, fmt.Errorf("%w: %s pipeline invoke: %w", contractx.ErrModelInvoke, p.agentType, err)
		}
		if msg == nil {
			return contractx.PipelineResponse{}, fmt.Errorf("%w: empty %s pipeline response", contractx.ErrSchemaViolation, p.agentType)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return contractx.PipelineResponse{}, fmt.Errorf("%w: %s pipeline returned empty content", contractx.ErrSchemaViolation, p.agentType)
			}
			return contractx.PipelineResponse{Raw: content, ToolCalls: results}, nil
		}

		if round >= p.maxRounds {
			return contractx.PipelineResponse{}, fmt.Errorf("%w: %s pipeline exceeded %d tool rounds", contractx.ErrSchemaViolation, p.agentType, p.maxRounds)
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result := p.execute(ctx, toToolRequest(call))
			results = append(results, result)

			log.Debug().
				Str("agent", string(p.agentType)).
				Str("tool", result.Tool).
				Int("round", round).
				Bool("failed", result.Error != "").
				Msg("pipeline tool call")

			messages = append(messages, schema.ToolMessage(toolMessageContent(result), call.ID))
		}
	}
}

// toToolRequest never fails: malformed arguments are passed on as an empty
// map so the gateway reports the missing field back to the model.
func toToolRequest(call schema.ToolCall) contractx.ToolRequest {
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Warn().Err(err).Str("tool", call.Function.Name).Msg("invalid tool arguments")
			args = map[string]any{}
		}
	}
	return contractx.ToolRequest{
		CallID: call.ID,
		Tool:   strings.TrimSpace(call.Function.Name),
		Args:   args,
	}
}

func toolMessageContent(result contractx.ToolResult) string {
	payload := any(result.Result)
	if result.Error != "" {
		payload = map[string]string{"error": result.Error}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(raw)
}
