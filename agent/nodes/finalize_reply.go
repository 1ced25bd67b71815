package routernode

import (
	"fmt"
	"strings"

	contractx "github.com/finnieassistant/finnie/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: pipeline returned empty reply", contractx.ErrValidation)
	}
	return GraphOutput{
		RequestID:   in.RequestID,
		Category:    in.Category,
		ClassifyRaw: in.Classification.Raw,
		Reply:       reply,
		ToolCalls:   in.ToolCalls,
	}, nil
}
