package contract

import "context"

type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error)
}

type Pipeline interface {
	Run(ctx context.Context, req PipelineRequest) (PipelineResponse, error)
}

type Registry interface {
	Classifier() Classifier
	Stock() Pipeline
	Portfolio() Pipeline
	Coach() Pipeline
}

type ToolGateway interface {
	Execute(ctx context.Context, agentType AgentType, req ToolRequest) ToolResult
}

type ExchangeRecorder interface {
	Record(ctx context.Context, ex Exchange) error
}
