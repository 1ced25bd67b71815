package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/finnieassistant/finnie/agent/contract"
	nodex "github.com/finnieassistant/finnie/agent/nodes"
	"github.com/finnieassistant/finnie/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Option func(*Router)

// WithRecorder adds a sink that receives every completed exchange. Recorder
// failures are logged and never fail the request.
func WithRecorder(rec contractx.ExchangeRecorder) Option {
	return func(r *Router) {
		if rec != nil {
			r.recorders = append(r.recorders, rec)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

func WithRequestIDs(newID func() string) Option {
	return func(r *Router) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// Result is the outcome of one routed query.
type Result struct {
	RequestID string
	Category  contractx.Category
	Reply     string
	ToolCalls []contractx.ToolResult
}

type Router struct {
	models    contractx.Registry
	recorders []contractx.ExchangeRecorder

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now   func() time.Time
	newID func() string
}

func New(models contractx.Registry, opts ...Option) (*Router, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}

	r := &Router{
		models: models,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	graphRunner, err := r.compileHandleQueryGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Handle classifies the query, runs the matching pipeline and records the
// exchange. Classifier and pipeline errors are returned as-is.
func (r *Router) Handle(ctx context.Context, query string) (Result, error) {
	start := r.now()
	requestID := r.newID()

	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{
		RequestID: requestID,
		Query:     query,
	})

	category, classifyRaw := out.Category, out.ClassifyRaw
	var dispatchErr *nodex.DispatchError
	if errors.As(err, &dispatchErr) {
		category, classifyRaw = dispatchErr.Category, dispatchErr.ClassifyRaw
	}

	metricCategory := category
	if metricCategory == "" {
		metricCategory = contractx.CategoryUnknown
	}
	metrics.RecordDispatch(string(metricCategory), r.now().Sub(start), err)

	if errors.Is(err, contractx.ErrInvalidQuery) {
		return Result{}, err
	}

	ex := contractx.Exchange{
		RequestID:   requestID,
		Query:       strings.TrimSpace(query),
		Category:    category,
		ClassifyRaw: classifyRaw,
		Reply:       out.Reply,
		CreatedAt:   start.UTC(),
	}
	if err != nil {
		ex.Error = err.Error()
	}
	r.record(ctx, ex)

	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Str("category", string(category)).Msg("query routing failed")
		return Result{}, err
	}

	log.Info().
		Str("request_id", requestID).
		Str("category", string(out.Category)).
		Int("tool_calls", len(out.ToolCalls)).
		Msg("query routed")

	return Result{
		RequestID: out.RequestID,
		Category:  out.Category,
		Reply:     out.Reply,
		ToolCalls: out.ToolCalls,
	}, nil
}

// Dispatch routes an already classified query by its category text and
// returns the reply.
func (r *Router) Dispatch(ctx context.Context, query string, categoryText string) (string, error) {
	_, resp, err := nodex.Dispatch(ctx, r.models, query, categoryText)
	if err != nil {
		return "", err
	}
	return resp.Raw, nil
}

func (r *Router) record(ctx context.Context, ex contractx.Exchange) {
	for _, rec := range r.recorders {
		if err := rec.Record(ctx, ex); err != nil {
			log.Warn().Err(err).Str("request_id", ex.RequestID).Msg("record exchange failed")
		}
	}
}
