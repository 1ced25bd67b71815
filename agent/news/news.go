package news

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tavilyx "github.com/finnieassistant/finnie/pkg/tavily"
)

const (
	BackendStub   = "stub"
	BackendTavily = "tavily"
)

type Config struct {
	Backend    string `envconfig:"BACKEND" split_words:"true" default:"stub"`
	MaxResults int    `envconfig:"MAX_RESULTS" split_words:"true" default:"5"`
}

// Searcher returns news headlines for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// StubSearcher returns two templated placeholder headlines and performs no
// real search.
type StubSearcher struct{}

func (StubSearcher) Search(_ context.Context, query string) ([]string, error) {
	return []string{
		fmt.Sprintf("Latest news about %s", query),
		fmt.Sprintf("Market reacts to %s", query),
	}, nil
}

type tavilyClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]tavilyx.Result, error)
}

// TavilySearcher formats Tavily news results as "<title>: <content>".
type TavilySearcher struct {
	client     tavilyClient
	maxResults int
}

func NewTavilySearcher(client tavilyClient, maxResults int) *TavilySearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &TavilySearcher{client: client, maxResults: maxResults}
}

func (s *TavilySearcher) Search(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("news query is required")
	}

	results, err := s.client.Search(ctx, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		title := strings.TrimSpace(r.Title)
		content := strings.TrimSpace(r.Content)
		switch {
		case title == "" && content == "":
			continue
		case content == "":
			out = append(out, title)
		case title == "":
			out = append(out, content)
		default:
			out = append(out, title+": "+content)
		}
		if len(out) == s.maxResults {
			break
		}
	}
	return out, nil
}

// New picks the backend named in cfg. The tavily backend needs a client.
func New(cfg Config, client tavilyClient) (Searcher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendStub:
		return StubSearcher{}, nil
	case BackendTavily:
		if client == nil {
			return nil, errors.New("news backend tavily requires TAVILY_API_KEY")
		}
		return NewTavilySearcher(client, cfg.MaxResults), nil
	default:
		return nil, fmt.Errorf("unknown news backend %q", cfg.Backend)
	}
}
