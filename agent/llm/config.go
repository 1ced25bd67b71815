package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/finnieassistant/finnie/agent/contract"
	openrouterx "github.com/finnieassistant/finnie/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ClassifierModel       string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	StockModel            string  `envconfig:"STOCK_MODEL" split_words:"true"`
	PortfolioModel        string  `envconfig:"PORTFOLIO_MODEL" split_words:"true"`
	CoachModel            string  `envconfig:"COACH_MODEL" split_words:"true"`
	ClassifierTemperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"-1"`
	StockTemperature      float32 `envconfig:"STOCK_TEMPERATURE" split_words:"true" default:"-1"`
	PortfolioTemperature  float32 `envconfig:"PORTFOLIO_TEMPERATURE" split_words:"true" default:"-1"`
	CoachTemperature      float32 `envconfig:"COACH_TEMPERATURE" split_words:"true" default:"-1"`

	MaxToolRounds int `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"4"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxToolRounds <= 0 {
		return fmt.Errorf("%w: max tool rounds must be > 0", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch agentType {
	case contractx.AgentTypeClassifier:
		override(c.ClassifierModel, c.ClassifierTemperature)
	case contractx.AgentTypeStock:
		override(c.StockModel, c.StockTemperature)
	case contractx.AgentTypePortfolio:
		override(c.PortfolioModel, c.PortfolioTemperature)
	case contractx.AgentTypeCoach:
		override(c.CoachModel, c.CoachTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
