package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Addr string `envconfig:"ADDR" split_words:"true"`
}

var (
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finnie_dispatch_total",
			Help: "Total number of routed queries",
		},
		[]string{"category", "status"}, // status: success|error
	)

	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finnie_dispatch_latency_seconds",
			Help:    "End-to-end latency of a routed query in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"category"},
	)

	ModelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finnie_model_calls_total",
			Help: "Total number of chat model calls",
		},
		[]string{"agent", "status"},
	)

	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finnie_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"}, // status: success|error|denied
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finnie_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Dispatches)
		prometheus.MustRegister(DispatchLatency)
		prometheus.MustRegister(ModelCalls)
		prometheus.MustRegister(ToolExecutions)
		prometheus.MustRegister(ToolLatency)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordDispatch(category string, latency time.Duration, err error) {
	Dispatches.WithLabelValues(category, status(err)).Inc()
	DispatchLatency.WithLabelValues(category).Observe(latency.Seconds())
}

func RecordModelCall(agent string, err error) {
	ModelCalls.WithLabelValues(agent, status(err)).Inc()
}

func RecordToolExecution(tool string, latency time.Duration, err error) {
	ToolExecutions.WithLabelValues(tool, status(err)).Inc()
	ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordToolDenied counts a tool call rejected by the pipeline allow-list.
func RecordToolDenied(tool string) {
	ToolExecutions.WithLabelValues(tool, "denied").Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	Init()

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
