package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/finnieassistant/finnie/agent/contract"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN         string        `envconfig:"DSN" split_words:"true"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	AutoMigrate bool          `envconfig:"AUTO_MIGRATE" split_words:"true" default:"true"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

// Recorder keeps routed exchanges and returns the most recent ones.
type Recorder interface {
	contractx.ExchangeRecorder
	Recent(ctx context.Context, n int) ([]contractx.Exchange, error)
	Close() error
}

type exchangeRow struct {
	bun.BaseModel `bun:"table:finnie_exchanges,alias:ex"`

	ID          int64     `bun:"id,pk,autoincrement"`
	RequestID   string    `bun:"request_id,notnull,unique"`
	Query       string    `bun:"query,notnull"`
	Category    string    `bun:"category,notnull"`
	ClassifyRaw string    `bun:"classify_raw"`
	Reply       string    `bun:"reply"`
	Error       string    `bun:"error"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func toRow(ex contractx.Exchange) exchangeRow {
	category := ex.Category
	if category == "" {
		category = contractx.CategoryUnknown
	}
	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return exchangeRow{
		RequestID:   ex.RequestID,
		Query:       ex.Query,
		Category:    string(category),
		ClassifyRaw: ex.ClassifyRaw,
		Reply:       ex.Reply,
		Error:       ex.Error,
		CreatedAt:   createdAt.UTC(),
	}
}

func (r exchangeRow) toExchange() contractx.Exchange {
	return contractx.Exchange{
		RequestID:   r.RequestID,
		Query:       r.Query,
		Category:    contractx.Category(r.Category),
		ClassifyRaw: r.ClassifyRaw,
		Reply:       r.Reply,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// PostgresStore persists exchanges with bun on Postgres.
type PostgresStore struct {
	db *bun.DB
}

var _ Recorder = (*PostgresStore)(nil)

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open returns a Postgres-backed recorder when a DSN is configured and a
// no-op recorder otherwise.
func Open(ctx context.Context, cfg Config) (Recorder, error) {
	if !cfg.Enabled() {
		return NoopRecorder{}, nil
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(strings.TrimSpace(cfg.DSN)),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping postgres: %w", err)
	}

	store := NewPostgresStore(db)
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	log.Info().Msg("exchange history enabled")
	return store, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*exchangeRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("history: create table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*exchangeRow)(nil)).
		Index("finnie_exchanges_created_at_idx").
		Column("created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("history: create index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, ex contractx.Exchange) error {
	if strings.TrimSpace(ex.RequestID) == "" {
		return fmt.Errorf("%w: exchange request id is required", contractx.ErrValidation)
	}

	row := toRow(ex)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("history: insert exchange: %w", err)
	}
	return nil
}

// Recent returns up to n exchanges, oldest first.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]contractx.Exchange, error) {
	if n <= 0 {
		return nil, nil
	}

	var rows []exchangeRow
	if err := s.recentQuery(&rows, n).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: select exchanges: %w", err)
	}

	out := make([]contractx.Exchange, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = row.toExchange()
	}
	return out, nil
}

func (s *PostgresStore) recentQuery(rows *[]exchangeRow, n int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(rows).
		OrderExpr("created_at DESC, id DESC").
		Limit(n)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// NoopRecorder drops every exchange.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, contractx.Exchange) error {
	return nil
}

func (NoopRecorder) Recent(context.Context, int) ([]contractx.Exchange, error) {
	return nil, nil
}

func (NoopRecorder) Close() error {
	return nil
}
