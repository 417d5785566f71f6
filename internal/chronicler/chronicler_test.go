package chronicler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig(baseURL)
	cfg.RequestsPerSec = 1000
	cfg.Burst = 1000
	cfg.MaxAttempts = 3
	return cfg
}

func pageBody(nextPage *string, ids ...string) []byte {
	type item struct {
		EntityID  string          `json:"entity_id"`
		ValidFrom time.Time       `json:"valid_from"`
		Data      json.RawMessage `json:"data"`
	}
	var items []item
	for _, id := range ids {
		items = append(items, item{
			EntityID:  id,
			ValidFrom: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Data:      json.RawMessage(`{"season":1}`),
		})
	}
	body, _ := json.Marshal(map[string]any{
		"items":     items,
		"next_page": nextPage,
	})
	return body
}

func TestFetchGamesPagePagination(t *testing.T) {
	next := "page-2"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("kind"); got != "game" {
			t.Errorf("kind = %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "1000" {
			t.Errorf("count = %q", got)
		}
		switch r.URL.Query().Get("page") {
		case "":
			w.Write(pageBody(&next, "g1", "g2"))
		case "page-2":
			w.Write(pageBody(nil, "g3"))
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("page"))
			http.Error(w, "bad page", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil, nil)
	ctx := context.Background()

	page, err := client.FetchGamesPage(ctx, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].EntityID != "g1" {
		t.Errorf("bad first page items: %+v", page.Items)
	}
	if page.NextPageToken == nil || *page.NextPageToken != "page-2" {
		t.Errorf("next token = %v", page.NextPageToken)
	}

	page, err = client.FetchGamesPage(ctx, *page.NextPageToken)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].EntityID != "g3" {
		t.Errorf("bad second page items: %+v", page.Items)
	}
	if page.NextPageToken != nil {
		t.Errorf("exhausted cursor should have nil next token, got %v", *page.NextPageToken)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Write(pageBody(nil, "g1"))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil, nil)
	page, err := client.FetchGamesPage(context.Background(), "")
	if err != nil {
		t.Fatalf("expected retries to succeed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
	if len(page.Items) != 1 {
		t.Errorf("got items %+v", page.Items)
	}
}

func TestFetchExhaustsAttempts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil, nil)
	if _, err := client.FetchGamesPage(context.Background(), ""); err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil, nil)
	if _, err := client.FetchGamesPage(context.Background(), ""); err == nil {
		t.Fatal("expected an error for a 4xx response")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", calls.Load())
	}
}

func TestPageSizeClamped(t *testing.T) {
	cfg := DefaultConfig("http://example.invalid")
	cfg.PageSize = 5000
	client := New(cfg, nil, nil)
	if client.cfg.PageSize != DefaultPageSize {
		t.Errorf("page size %d not clamped to %d", client.cfg.PageSize, DefaultPageSize)
	}

	cfg.PageSize = 0
	client = New(cfg, nil, nil)
	if client.cfg.PageSize != DefaultPageSize {
		t.Errorf("zero page size should default to %d", client.cfg.PageSize)
	}
}

func TestFetchCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(testConfig(srv.URL), nil, nil)
	if _, err := client.FetchGamesPage(ctx, ""); err == nil {
		t.Fatal("expected a context error")
	}
}
