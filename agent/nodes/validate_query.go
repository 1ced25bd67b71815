package routernode

import (
	"errors"
	"strings"

	contractx "github.com/finnieassistant/finnie/agent/contract"
)

var ErrMissingRequestID = errors.New("request id is empty")

func ValidateQuery(in GraphInput) (*GraphState, error) {
	requestID := strings.TrimSpace(in.RequestID)
	if requestID == "" {
		return nil, ErrMissingRequestID
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, contractx.ErrInvalidQuery
	}

	return &GraphState{
		RequestID: requestID,
		Query:     query,
	}, nil
}
