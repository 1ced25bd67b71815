package qstash

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/finnieassistant/finnie/agent/contract"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", Token: "t"}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "https://qstash.upstash.io"}); err == nil {
		t.Fatal("expected error for empty token")
	}
	if (Config{Token: "t"}).Enabled() {
		t.Fatal("config without destination must be disabled")
	}
	if !(Config{Token: "t", Destination: "https://hooks.example.com/finnie"}).Enabled() {
		t.Fatal("config with token and destination must be enabled")
	}
}

func TestPublish(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotAuth string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messageId":"msg_123"}`))
	}))
	defer srv.Close()

	client := MustNew(Config{URL: srv.URL + "/", Token: "secret", Timeout: time.Second})
	id, err := client.Publish(context.Background(), "https://hooks.example.com/finnie", []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("unexpected message id: %s", id)
	}
	if gotPath != "/v2/publish/https://hooks.example.com/finnie" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if string(gotBody) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestPublishErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	client := MustNew(Config{URL: srv.URL, Token: "bad"})
	if _, err := client.Publish(context.Background(), "https://hooks.example.com/finnie", nil); err == nil {
		t.Fatal("expected error for 401")
	}
	if _, err := client.Publish(context.Background(), "", nil); err == nil {
		t.Fatal("expected error for empty destination")
	}
}

func TestExchangePublisher(t *testing.T) {
	t.Parallel()

	var got contractx.Exchange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"messageId":"msg_1"}`))
	}))
	defer srv.Close()

	pub := NewExchangePublisher(MustNew(Config{URL: srv.URL, Token: "t"}), "https://hooks.example.com/finnie")
	err := pub.Record(context.Background(), contractx.Exchange{
		RequestID: "req-1",
		Query:     "Analyze AAPL",
		Category:  contractx.CategoryStock,
		Reply:     "ok",
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if got.RequestID != "req-1" || got.Category != contractx.CategoryStock {
		t.Fatalf("unexpected published exchange: %+v", got)
	}
}
