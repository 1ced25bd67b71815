package routernode

import (
	"context"
	"fmt"

	contractx "github.com/finnieassistant/finnie/agent/contract"
	"github.com/rs/zerolog/log"
)

func ClassifyQuery(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is not configured", contractx.ErrValidation)
	}

	resp, err := classifier.Classify(ctx, contractx.ClassifyRequest{Query: in.Query})
	if err != nil {
		return nil, err
	}

	in.Classification = resp
	log.Debug().
		Str("request_id", in.RequestID).
		Str("category", string(resp.Category)).
		Str("raw", resp.Raw).
		Msg("query classified")
	return in, nil
}

// CategoryText is what the dispatcher matches on: the structured tag when the
// classifier produced one, the raw model text otherwise.
func CategoryText(resp contractx.ClassifyResponse) string {
	if resp.Category != "" {
		return string(resp.Category)
	}
	return resp.Raw
}
