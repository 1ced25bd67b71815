package cache

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

	marketdatax "github.com/finnieassistant/finnie/agent/marketdata"
)

var (
	ErrInvalidTicker = errors.New("ticker is empty")
	ErrNilSnapshot   = errors.New("snapshot is failed or empty")
)

const (
	defaultKeyPrefix     = "finnie:snapshot:"
	defaultTTL           = time.Minute
	maxResponseSizeBytes = 2 << 20
)

// StoreOption customizes UpstashSnapshotStore.
type StoreOption func(*UpstashSnapshotStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashSnapshotStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashSnapshotStore) {
		s.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashSnapshotStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashSnapshotStore caches market snapshots in Upstash Redis via REST.
type UpstashSnapshotStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

var _ marketdatax.SnapshotCache = (*UpstashSnapshotStore)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	TTL     time.Duration `envconfig:"TTL" split_words:"true" default:"60s"`
}

// Enabled reports whether both URL and token are configured.
func (c UpstashRedisConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

func NewUpstashSnapshotStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashSnapshotStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}

	store := &UpstashSnapshotStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return store, nil
}

func (s *UpstashSnapshotStore) Get(ctx context.Context, ticker string) (marketdatax.Snapshot, bool, error) {
	key, err := s.redisKey(ticker)
	if err != nil {
		return marketdatax.Snapshot{}, false, err
	}

	resp, err := s.exec(ctx, []any{"GET", key})
	if err != nil {
		return marketdatax.Snapshot{}, false, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return marketdatax.Snapshot{}, false, nil
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return marketdatax.Snapshot{}, false, fmt.Errorf("decode snapshot payload: %w", err)
	}

	var snap marketdatax.Snapshot
	if err := json.Unmarshal([]byte(encoded), &snap); err != nil {
		return marketdatax.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Failed() || snap.Ticker == "" {
		return marketdatax.Snapshot{}, false, nil
	}

	return snap, true, nil
}

func (s *UpstashSnapshotStore) Set(ctx context.Context, snap marketdatax.Snapshot) error {
	if snap.Failed() || strings.TrimSpace(snap.Ticker) == "" {
		return ErrNilSnapshot
	}

	key, err := s.redisKey(snap.Ticker)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	cmd := []any{"SET", key, string(payload)}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}

	if _, err := s.exec(ctx, cmd); err != nil {
		return err
	}

	return nil
}

func (s *UpstashSnapshotStore) Delete(ctx context.Context, ticker string) error {
	key, err := s.redisKey(ticker)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", key})
	return err
}

func (s *UpstashSnapshotStore) redisKey(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if normalized == "" {
		return "", ErrInvalidTicker
	}
	prefix := strings.TrimSpace(s.keyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return prefix + normalized, nil
}

func (s *UpstashSnapshotStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
