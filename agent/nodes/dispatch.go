package routernode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/finnieassistant/finnie/agent/contract"
)

// DispatchError reports a failure after the category was matched, so callers
// can still tell which pipeline was selected.
type DispatchError struct {
	Category    contractx.Category
	ClassifyRaw string
	Err         error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s pipeline: %v", strings.ToLower(string(e.Category)), e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func DispatchPipeline(ctx context.Context, in *GraphState, models contractx.Registry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	category, resp, err := Dispatch(ctx, models, in.Query, CategoryText(in.Classification))
	in.Category = category
	if err != nil {
		var dispatchErr *DispatchError
		if errors.As(err, &dispatchErr) {
			dispatchErr.ClassifyRaw = in.Classification.Raw
		}
		return nil, err
	}

	in.Reply = resp.Raw
	in.ToolCalls = resp.ToolCalls
	return in, nil
}

// Dispatch runs exactly one pipeline selected by substring match on
// categoryText, or none at all when nothing matches. The unmatched case is a
// successful clarification reply.
func Dispatch(
	ctx context.Context,
	models contractx.Registry,
	query string,
	categoryText string,
) (contractx.Category, contractx.PipelineResponse, error) {
	category := contractx.MatchCategory(categoryText)
	if category == contractx.CategoryUnknown {
		return category, contractx.PipelineResponse{Raw: contractx.ClarificationMessage}, nil
	}

	pipeline, err := pickPipeline(category, models)
	if err != nil {
		return category, contractx.PipelineResponse{}, &DispatchError{Category: category, Err: err}
	}

	resp, err := pipeline.Run(ctx, contractx.PipelineRequest{Query: query})
	if err != nil {
		return category, contractx.PipelineResponse{}, &DispatchError{Category: category, Err: err}
	}
	return category, resp, nil
}

func pickPipeline(category contractx.Category, models contractx.Registry) (contractx.Pipeline, error) {
	if models == nil {
		return nil, fmt.Errorf("%w: model registry is nil", contractx.ErrValidation)
	}

	var pipeline contractx.Pipeline
	switch category {
	case contractx.CategoryStock:
		pipeline = models.Stock()
	case contractx.CategoryPortfolio:
		pipeline = models.Portfolio()
	case contractx.CategoryCoach:
		pipeline = models.Coach()
	default:
		return nil, fmt.Errorf("%w: unsupported category=%q", contractx.ErrValidation, category)
	}
	if pipeline == nil {
		return nil, fmt.Errorf("%w: %s pipeline is not configured", contractx.ErrValidation, category)
	}
	return pipeline, nil
}
