package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxResponseSizeBytes = 2 << 20

type Config struct {
	URL        string        `envconfig:"URL" split_words:"true" default:"https://api.tavily.com"`
	APIKey     string        `envconfig:"API_KEY" split_words:"true"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
	Topic      string        `envconfig:"TOPIC" split_words:"true" default:"news"`
	SearchDays int           `envconfig:"SEARCH_DAYS" split_words:"true" default:"7"`
}

type Client struct {
	baseURL    string
	apiKey     string
	topic      string
	days       int
	httpClient *http.Client
}

type SearchRequest struct {
	Query      string `json:"query"`
	Topic      string `json:"topic,omitempty"`
	Days       int    `json:"days,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Detail  any      `json:"detail,omitempty"`
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("tavily url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid tavily url: %w", err)
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("tavily api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		topic:   strings.TrimSpace(cfg.Topic),
		days:    cfg.SearchDays,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Search runs a Tavily search. Result content is returned as plain text.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	body, err := json.Marshal(SearchRequest{
		Query:      query,
		Topic:      c.topic,
		Days:       c.days,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tavily request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute tavily request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read tavily response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("tavily http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}

	for i := range parsed.Results {
		parsed.Results[i].Title = PlainText(parsed.Results[i].Title)
		parsed.Results[i].Content = PlainText(parsed.Results[i].Content)
	}
	return parsed.Results, nil
}

// PlainText strips markup from a snippet and collapses whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script,style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
