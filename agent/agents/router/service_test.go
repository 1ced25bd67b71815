package router

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/finnieassistant/finnie/agent/contract"
)

type fakeClassifier struct {
	resp  contractx.ClassifyResponse
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResponse, error) {
	f.calls++
	if f.err != nil {
		return contractx.ClassifyResponse{}, f.err
	}
	return f.resp, nil
}

type fakePipeline struct {
	reply    string
	err      error
	calls    int
	lastReqs []contractx.PipelineRequest
}

func (f *fakePipeline) Run(ctx context.Context, req contractx.PipelineRequest) (contractx.PipelineResponse, error) {
	f.calls++
	f.lastReqs = append(f.lastReqs, req)
	if f.err != nil {
		return contractx.PipelineResponse{}, f.err
	}
	return contractx.PipelineResponse{Raw: f.reply}, nil
}

type fakeRegistry struct {
	classifier contractx.Classifier
	stock      *fakePipeline
	portfolio  *fakePipeline
	coach      *fakePipeline
}

func newFakeRegistry(classifier contractx.Classifier) *fakeRegistry {
	return &fakeRegistry{
		classifier: classifier,
		stock:      &fakePipeline{reply: "stock analysis"},
		portfolio:  &fakePipeline{reply: "portfolio review"},
		coach:      &fakePipeline{reply: "concept explained"},
	}
}

func (f *fakeRegistry) Classifier() contractx.Classifier {
	return f.classifier
}

func (f *fakeRegistry) Stock() contractx.Pipeline {
	return f.stock
}

func (f *fakeRegistry) Portfolio() contractx.Pipeline {
	return f.portfolio
}

func (f *fakeRegistry) Coach() contractx.Pipeline {
	return f.coach
}

func (f *fakeRegistry) pipelineCalls() int {
	return f.stock.calls + f.portfolio.calls + f.coach.calls
}

type fakeRecorder struct {
	err       error
	exchanges []contractx.Exchange
}

func (f *fakeRecorder) Record(ctx context.Context, ex contractx.Exchange) error {
	f.exchanges = append(f.exchanges, ex)
	return f.err
}

func newTestRouter(t *testing.T, models contractx.Registry, rec *fakeRecorder) *Router {
	t.Helper()

	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r, err := New(models,
		WithRecorder(rec),
		WithClock(func() time.Time { return fixed }),
		WithRequestIDs(func() string { return "req-1" }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestHandleStockQuery(t *testing.T) {
	t.Parallel()

	models := newFakeRegistry(&fakeClassifier{resp: contractx.ClassifyResponse{Raw: `{"category":"STOCK"}`, Category: contractx.CategoryStock}})
	rec := &fakeRecorder{}
	r := newTestRouter(t, models, rec)

	out, err := r.Handle(context.Background(), "  Analyze AAPL  ")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Reply != "stock analysis" || out.Category != contractx.CategoryStock {
		t.Fatalf("unexpected result: %+v", out)
	}
	if out.RequestID != "req-1" {
		t.Fatalf("unexpected request id: %s", out.RequestID)
	}
	if models.stock.calls != 1 || models.pipelineCalls() != 1 {
		t.Fatalf("expected exactly one stock pipeline call, got stock=%d total=%d", models.stock.calls, models.pipelineCalls())
	}
	if got := models.stock.lastReqs[0].Query; got != "Analyze AAPL" {
		t.Fatalf("pipeline must receive the original query, got %q", got)
	}

	if len(rec.exchanges) != 1 {
		t.Fatalf("expected one recorded exchange, got %d", len(rec.exchanges))
	}
	ex := rec.exchanges[0]
	if ex.RequestID != "req-1" || ex.Category != contractx.CategoryStock || ex.Reply != "stock analysis" || ex.Error != "" {
		t.Fatalf("unexpected exchange: %+v", ex)
	}
	if ex.ClassifyRaw != `{"category":"STOCK"}` {
		t.Fatalf("unexpected classify raw: %q", ex.ClassifyRaw)
	}
}

func TestHandleRawTextStockBeatsPortfolio(t *testing.T) {
	t.Parallel()

	models := newFakeRegistry(&fakeClassifier{resp: contractx.ClassifyResponse{Raw: "STOCK PORTFOLIO"}})
	r := newTestRouter(t, models, &fakeRecorder{})

	out, err := r.Handle(context.Background(), "compare AAPL to my holdings")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Category != contractx.CategoryStock {
		t.Fatalf("expected STOCK, got %s", out.Category)
	}
	if models.stock.calls != 1 || models.portfolio.calls != 0 {
		t.Fatalf("unexpected calls stock=%d portfolio=%d", models.stock.calls, models.portfolio.calls)
	}
}

func TestHandleCoachAndPortfolio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category contractx.Category
		reply    string
	}{
		{category: contractx.CategoryPortfolio, reply: "portfolio review"},
		{category: contractx.CategoryCoach, reply: "concept explained"},
	}

	for _, tt := range tests {
		models := newFakeRegistry(&fakeClassifier{resp: contractx.ClassifyResponse{Raw: string(tt.category), Category: tt.category}})
		r := newTestRouter(t, models, &fakeRecorder{})

		out, err := r.Handle(context.Background(), "question")
		if err != nil {
			t.Fatalf("%s: Handle() error = %v", tt.category, err)
		}
		if out.Reply != tt.reply || models.pipelineCalls() != 1 {
			t.Fatalf("%s: unexpected result %+v calls=%d", tt.category, out, models.pipelineCalls())
		}
	}
}

func TestHandleUnknownReturnsClarification(t *testing.T) {
	t.Parallel()

	models := newFakeRegistry(&fakeClassifier{resp: contractx.ClassifyResponse{Raw: "I am not sure", Category: contractx.CategoryUnknown}})
	rec := &fakeRecorder{}
	r := newTestRouter(t, models, rec)

	out, err := r.Handle(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Reply != contractx.ClarificationMessage {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if out.Category != contractx.CategoryUnknown {
		t.Fatalf("unexpected category: %s", out.Category)
	}
	if models.pipelineCalls() != 0 {
		t.Fatalf("expected no pipeline calls, got %d", models.pipelineCalls())
	}
	if len(rec.exchanges) != 1 || rec.exchanges[0].Reply != contractx.ClarificationMessage {
		t.Fatalf("unexpected exchanges: %+v", rec.exchanges)
	}
}

func TestHandleInvalidQuery(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{}
	models := newFakeRegistry(classifier)
	rec := &fakeRecorder{}
	r := newTestRouter(t, models, rec)

	_, err := r.Handle(context.Background(), "   ")
	if !errors.Is(err, contractx.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if classifier.calls != 0 || models.pipelineCalls() != 0 {
		t.Fatalf("empty query must not reach the models")
	}
	if len(rec.exchanges) != 0 {
		t.Fatalf("empty query must not be recorded, got %d", len(rec.exchanges))
	}
}

func TestHandleClassifierErrorPropagates(t *testing.T) {
	t.Parallel()

	classifyErr := errors.New("classifier unavailable")
	models := newFakeRegistry(&fakeClassifier{err: classifyErr})
	rec := &fakeRecorder{}
	r := newTestRouter(t, models, rec)

	_, err := r.Handle(context.Background(), "Analyze AAPL")
	if !errors.Is(err, classifyErr) {
		t.Fatalf("expected classifier error, got %v", err)
	}
	if models.pipelineCalls() != 0 {
		t.Fatalf("expected no pipeline calls, got %d", models.pipelineCalls())
	}
	if len(rec.exchanges) != 1 || rec.exchanges[0].Error == "" {
		t.Fatalf("failed exchange must be recorded with its error: %+v", rec.exchanges)
	}
}

func TestHandlePipelineErrorPropagates(t *testing.T) {
	t.Parallel()

	pipelineErr := errors.New("market data timeout")
	models := newFakeRegistry(&fakeClassifier{resp: contractx.ClassifyResponse{Raw: `{"category":"STOCK"}`, Category: contractx.CategoryStock}})
	models.stock.err = pipelineErr
	rec := &fakeRecorder{}
	r := newTestRouter(t, models, rec)

	_, err := r.Handle(context.Background(), "Analyze AAPL")
	if !errors.Is(err, pipelineErr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if models.stock.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", models.stock.calls)
	}
	if len(rec.exchanges) != 1 {
		t.Fatalf("expected one recorded exchange, got %d", len(rec.exchanges))
	}
	ex := rec.exchanges[0]
	if ex.Category != contractx.CategoryStock || ex.ClassifyRaw != `{"category":"STOCK"}` || ex.Error == "" {
		t.Fatalf("failed exchange must keep the matched category: %+v", ex)
	}
}

func TestHandleRecorderErrorIsIgnored(t *testing.T) {
	t.Parallel()

	models := newFakeRegistry(&fakeClassifier{resp: contractx.ClassifyResponse{Category: contractx.CategoryCoach}})
	r := newTestRouter(t, models, &fakeRecorder{err: errors.New("db down")})

	out, err := r.Handle(context.Background(), "what is an ETF?")
	if err != nil {
		t.Fatalf("recorder failure must not fail the request: %v", err)
	}
	if out.Reply != "concept explained" {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	models := newFakeRegistry(&fakeClassifier{})
	r := newTestRouter(t, models, &fakeRecorder{})

	reply, err := r.Dispatch(context.Background(), "q", "PORTFOLIO then COACH")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if reply != "portfolio review" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	reply, err = r.Dispatch(context.Background(), "q", "weather")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if reply != contractx.ClarificationMessage {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if models.pipelineCalls() != 1 {
		t.Fatalf("expected one pipeline call, got %d", models.pipelineCalls())
	}
}

func TestNewRequiresRegistry(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil registry")
	}
}
