package routernode

import contractx "github.com/finnieassistant/finnie/agent/contract"

type GraphInput struct {
	RequestID string
	Query     string
}

type GraphOutput struct {
	RequestID   string
	Category    contractx.Category
	ClassifyRaw string
	Reply       string
	ToolCalls   []contractx.ToolResult
}

type GraphState struct {
	RequestID string
	Query     string

	Classification contractx.ClassifyResponse
	Category       contractx.Category

	Reply     string
	ToolCalls []contractx.ToolResult
}
