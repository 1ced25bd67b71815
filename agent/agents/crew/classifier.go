package crew

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/finnieassistant/finnie/agent/contract"
	promptx "github.com/finnieassistant/finnie/agent/prompt"
	"github.com/finnieassistant/finnie/pkg/metrics"
	"github.com/rs/zerolog/log"
)

type classifierImpl struct {
	runner compose.Runnable[map[string]any, contractx.ClassifyResponse]
}

type classifierLLMOutput struct {
	Category string `json:"category"`
}

func newClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, p promptx.Agent) (*classifierImpl, error) {
	runner, err := compileClassifierGraph(ctx, chatModel, p)
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %w", contractx.ErrModelInvoke, err)
	}
	return &classifierImpl{runner: runner}, nil
}

func (c *classifierImpl) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return contractx.ClassifyResponse{}, contractx.ErrInvalidQuery
	}

	out, err := c.runner.Invoke(ctx, map[string]any{"query": query})
	metrics.RecordModelCall(string(contractx.AgentTypeClassifier), err)
	if err != nil {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: classifier invoke: %w", contractx.ErrModelInvoke, err)
	}
	return out, nil
}

// parseClassification prefers the structured {"category": ...} tag and falls
// back to substring matching over the raw text. It never fails: unparseable
// output becomes UNKNOWN.
func parseClassification(
	ctx context.Context,
	parser schema.MessageParser[classifierLLMOutput],
	msg *schema.Message,
) contractx.ClassifyResponse {
	if msg == nil {
		return contractx.ClassifyResponse{Category: contractx.CategoryUnknown}
	}

	raw := strings.TrimSpace(msg.Content)
	resp := contractx.ClassifyResponse{Raw: raw}

	if out, err := parser.Parse(ctx, msg); err == nil {
		if category, ok := contractx.ParseCategory(out.Category); ok {
			resp.Category = category
			return resp
		}
	}

	resp.Category = contractx.MatchCategory(raw)
	log.Debug().Str("raw", raw).Str("category", string(resp.Category)).Msg("classifier fell back to text matching")
	return resp
}
