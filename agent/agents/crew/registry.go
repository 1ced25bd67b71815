package crew

import (
	"context"
	"fmt"

	contractx "github.com/finnieassistant/finnie/agent/contract"
	llmx "github.com/finnieassistant/finnie/agent/llm"
	promptx "github.com/finnieassistant/finnie/agent/prompt"
)

type registryImpl struct {
	classifier contractx.Classifier
	stock      contractx.Pipeline
	portfolio  contractx.Pipeline
	coach      contractx.Pipeline
}

func (r *registryImpl) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *registryImpl) Stock() contractx.Pipeline {
	return r.stock
}

func (r *registryImpl) Portfolio() contractx.Pipeline {
	return r.portfolio
}

func (r *registryImpl) Coach() contractx.Pipeline {
	return r.coach
}

// NewRegistry builds the classifier and the three pipelines, each on its own
// chat model configured from cfg.
func NewRegistry(
	ctx context.Context,
	cfg llmx.Config,
	prompts promptx.PromptSet,
	gateway contractx.ToolGateway,
) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifierModelCfg := cfg.OpenRouterFor(contractx.AgentTypeClassifier)
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %w", contractx.ErrModelInvoke, err)
	}
	classifier, err := newClassifier(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, err
	}

	newPipelineFor := func(agentType contractx.AgentType, p promptx.Agent) (contractx.Pipeline, error) {
		modelCfg := cfg.OpenRouterFor(agentType)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %w", contractx.ErrModelInvoke, agentType, err)
		}
		return newPipeline(ctx, agentType, chatModel, p, gateway, cfg.MaxToolRounds)
	}

	stock, err := newPipelineFor(contractx.AgentTypeStock, prompts.Stock)
	if err != nil {
		return nil, err
	}
	portfolio, err := newPipelineFor(contractx.AgentTypePortfolio, prompts.Portfolio)
	if err != nil {
		return nil, err
	}
	coach, err := newPipelineFor(contractx.AgentTypeCoach, prompts.Coach)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		classifier: classifier,
		stock:      stock,
		portfolio:  portfolio,
		coach:      coach,
	}, nil
}
