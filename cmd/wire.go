package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finnieassistant/finnie/agent/agents/crew"
	routerx "github.com/finnieassistant/finnie/agent/agents/router"
	cachex "github.com/finnieassistant/finnie/agent/cache"
	"github.com/finnieassistant/finnie/agent/history"
	llmx "github.com/finnieassistant/finnie/agent/llm"
	marketdatax "github.com/finnieassistant/finnie/agent/marketdata"
	"github.com/finnieassistant/finnie/agent/news"
	"github.com/finnieassistant/finnie/agent/portfolio"
	promptx "github.com/finnieassistant/finnie/agent/prompt"
	toolx "github.com/finnieassistant/finnie/agent/tool"
	configx "github.com/finnieassistant/finnie/pkg/config"
	qstashx "github.com/finnieassistant/finnie/pkg/qstash"
	tavilyx "github.com/finnieassistant/finnie/pkg/tavily"
	yahoox "github.com/finnieassistant/finnie/pkg/yahoo"
	"github.com/rs/zerolog/log"
)

type promptConfig struct {
	Dir string `envconfig:"DIR" split_words:"true"`
}

type toolset struct {
	fetcher   *marketdatax.Fetcher
	news      news.Searcher
	portfolio portfolio.Analyzer
	gateway   *toolx.Gateway
}

func buildFetcher() (*marketdatax.Fetcher, error) {
	yahooCfg, err := configx.New[yahoox.Config]("YAHOO")
	if err != nil {
		return nil, err
	}
	client, err := yahoox.NewClient(*yahooCfg)
	if err != nil {
		return nil, fmt.Errorf("create yahoo client: %w", err)
	}

	var opts []marketdatax.Option
	cacheCfg, err := configx.New[cachex.UpstashRedisConfig]("UPSTASH_REDIS")
	if err != nil {
		return nil, err
	}
	if cacheCfg.Enabled() {
		store, err := cachex.NewUpstashSnapshotStore(*cacheCfg)
		if err != nil {
			return nil, fmt.Errorf("create snapshot cache: %w", err)
		}
		opts = append(opts, marketdatax.WithCache(store))
		log.Debug().Dur("ttl", cacheCfg.TTL).Msg("snapshot cache enabled")
	}

	return marketdatax.NewFetcher(marketdatax.NewYahooProvider(client), opts...), nil
}

func buildNews() (news.Searcher, error) {
	newsCfg, err := configx.New[news.Config]("NEWS")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(newsCfg.Backend), news.BackendTavily) {
		return news.New(*newsCfg, nil)
	}

	tavilyCfg, err := configx.New[tavilyx.Config]("TAVILY")
	if err != nil {
		return nil, err
	}
	client, err := tavilyx.NewClient(*tavilyCfg)
	if err != nil {
		return nil, fmt.Errorf("create tavily client: %w", err)
	}
	return news.New(*newsCfg, client)
}

func buildPortfolio(fetcher *marketdatax.Fetcher) (portfolio.Analyzer, error) {
	portfolioCfg, err := configx.New[portfolio.Config]("PORTFOLIO")
	if err != nil {
		return nil, err
	}
	return portfolio.New(*portfolioCfg, fetcher)
}

func buildTools() (*toolset, error) {
	fetcher, err := buildFetcher()
	if err != nil {
		return nil, err
	}
	searcher, err := buildNews()
	if err != nil {
		return nil, err
	}
	analyzer, err := buildPortfolio(fetcher)
	if err != nil {
		return nil, err
	}

	return &toolset{
		fetcher:   fetcher,
		news:      searcher,
		portfolio: analyzer,
		gateway:   toolx.NewGateway(fetcher, searcher, analyzer),
	}, nil
}

type assistant struct {
	router  *routerx.Router
	history history.Recorder
}

func (a *assistant) Close() {
	if err := a.history.Close(); err != nil {
		log.Warn().Err(err).Msg("close exchange history")
	}
}

func buildAssistant(ctx context.Context) (*assistant, error) {
	tools, err := buildTools()
	if err != nil {
		return nil, err
	}

	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, err
	}
	promptCfg, err := configx.New[promptConfig]("PROMPT")
	if err != nil {
		return nil, err
	}
	prompts, err := promptx.LoadPromptSet(promptCfg.Dir)
	if err != nil {
		return nil, err
	}

	registry, err := crew.NewRegistry(ctx, *llmCfg, prompts, tools.gateway)
	if err != nil {
		return nil, err
	}

	historyCfg, err := configx.New[history.Config]("HISTORY")
	if err != nil {
		return nil, err
	}
	recorder, err := history.Open(ctx, *historyCfg)
	if err != nil {
		return nil, err
	}

	opts := []routerx.Option{routerx.WithRecorder(recorder)}

	qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		_ = recorder.Close()
		return nil, err
	}
	if qstashCfg.Enabled() {
		client, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			_ = recorder.Close()
			return nil, fmt.Errorf("create qstash client: %w", err)
		}
		opts = append(opts, routerx.WithRecorder(qstashx.NewExchangePublisher(client, qstashCfg.Destination)))
	}

	r, err := routerx.New(registry, opts...)
	if err != nil {
		_ = recorder.Close()
		return nil, err
	}
	return &assistant{router: r, history: recorder}, nil
}

var errEmptyInput = errors.New("input is empty")
