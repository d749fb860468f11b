package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/onnwee/hardlyknowher/chat"
	"github.com/onnwee/hardlyknowher/cooldown"
	"github.com/onnwee/hardlyknowher/db"
)

type fakeStats struct{ st chat.Stats }

func (f fakeStats) Stats(context.Context) chat.Stats { return f.st }

type fakeStore struct {
	pingErr error
	words   []db.WordCount
	gotN    int
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) TopWords(_ context.Context, limit int) ([]db.WordCount, error) {
	f.gotN = limit
	return f.words, nil
}

func newTestScanner() *chat.Scanner {
	return chat.NewScanner(nil, cooldown.New(30*time.Second, clockwork.NewFakeClock()))
}

func newTestMux(t *testing.T, h *Handlers, limit int) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewMux(ctx, h, limit)
}

func TestHealthzOK(t *testing.T) {
	h := NewHandlers(newTestScanner(), fakeStats{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	newTestMux(t, h, 0).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Body.String(); got != "ok" {
		t.Fatalf("expected ok body, got %q", got)
	}
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected a generated correlation id")
	}
}

func TestHealthzDatabaseDown(t *testing.T) {
	h := NewHandlers(newTestScanner(), fakeStats{}, &fakeStore{pingErr: errors.New("down")}, nil)
	rr := httptest.NewRecorder()
	newTestMux(t, h, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		store     WordRanker
		want      int
		failed    string
	}{
		{"ready", true, nil, http.StatusOK, ""},
		{"chat down", false, nil, http.StatusServiceUnavailable, "chat"},
		{"db down", true, &fakeStore{pingErr: errors.New("down")}, http.StatusServiceUnavailable, "database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connected := tt.connected
			h := NewHandlers(newTestScanner(), fakeStats{}, tt.store, func() bool { return connected })
			rr := httptest.NewRecorder()
			newTestMux(t, h, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d, body=%s", rr.Code, tt.want, rr.Body.String())
			}
			var resp map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["failed_check"] != tt.failed {
				t.Errorf("failed_check = %q, want %q", resp["failed_check"], tt.failed)
			}
		})
	}
}

func TestPreviewIsDryRun(t *testing.T) {
	scanner := newTestScanner()
	h := NewHandlers(scanner, fakeStats{}, nil, nil)
	mux := newTestMux(t, h, 0)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/preview?text=the+painter+and+the+dancer", nil),
		httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader(`{"text":"the painter and the dancer"}`)),
	} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d body=%s", req.Method, rr.Code, rr.Body.String())
		}
		var resp previewResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if strings.Join(resp.Words, ",") != "painter,dancer" {
			t.Errorf("%s: words = %v", req.Method, resp.Words)
		}
		if len(resp.Replies) != 2 || resp.Replies[0] != "Painter? Hardly know her!" {
			t.Errorf("%s: replies = %v", req.Method, resp.Replies)
		}
	}
	if scanner.ActiveCooldowns() != 0 {
		t.Fatal("preview must not fire cooldowns")
	}
	if _, ok := scanner.Scan("alpha", "painter"); !ok {
		t.Fatal("live scan should still fire after a preview")
	}
}

func TestPreviewBadRequests(t *testing.T) {
	h := NewHandlers(newTestScanner(), fakeStats{}, nil, nil)
	mux := newTestMux(t, h, 0)
	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"missing text", httptest.NewRequest(http.MethodGet, "/preview", nil), http.StatusBadRequest},
		{"bad json", httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader("{")), http.StatusBadRequest},
		{"wrong method", httptest.NewRequest(http.MethodDelete, "/preview", nil), http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, tt.req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestPreviewNoWordsReturnsEmptyLists(t *testing.T) {
	h := NewHandlers(newTestScanner(), fakeStats{}, nil, nil)
	rr := httptest.NewRecorder()
	newTestMux(t, h, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/preview?text=hello", nil))
	if got := strings.TrimSpace(rr.Body.String()); got != `{"words":[],"replies":[]}` {
		t.Fatalf("body = %s", got)
	}
}

func TestPreviewRateLimit(t *testing.T) {
	h := NewHandlers(newTestScanner(), fakeStats{}, nil, nil)
	mux := newTestMux(t, h, 2)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/preview?text=painter", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 200 429]", codes)
	}
}

func TestStats(t *testing.T) {
	want := chat.Stats{Servers: 2, Members: 40, ActiveCooldowns: 3, JokesTold: 12}
	h := NewHandlers(newTestScanner(), fakeStats{st: want}, nil, nil)
	rr := httptest.NewRecorder()
	newTestMux(t, h, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var got map[string]int64
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["servers"] != 2 || got["members"] != 40 || got["active_cooldowns"] != 3 || got["jokes_told"] != 12 {
		t.Fatalf("stats = %v", got)
	}
}

func TestTopWords(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := NewHandlers(newTestScanner(), fakeStats{}, nil, nil)
		rr := httptest.NewRecorder()
		newTestMux(t, h, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats/words", nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", rr.Code)
		}
	})
	t.Run("enabled", func(t *testing.T) {
		store := &fakeStore{words: []db.WordCount{{Word: "computer", Count: 4}}}
		h := NewHandlers(newTestScanner(), fakeStats{}, store, nil)
		rr := httptest.NewRecorder()
		newTestMux(t, h, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats/words?limit=5", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d", rr.Code)
		}
		if store.gotN != 5 {
			t.Errorf("limit passed = %d, want 5", store.gotN)
		}
		if !strings.Contains(rr.Body.String(), `"word":"computer"`) {
			t.Errorf("body = %s", rr.Body.String())
		}
	})
}

func TestCorrelationIDIsReused(t *testing.T) {
	h := NewHandlers(newTestScanner(), fakeStats{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rr := httptest.NewRecorder()
	newTestMux(t, h, 0).ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-ID"); got != "abc-123" {
		t.Fatalf("X-Correlation-ID = %q", got)
	}
}

func TestStartAndShutdown(t *testing.T) {
	h := NewHandlers(newTestScanner(), fakeStats{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run server in background on random port by using :0
	done := make(chan error, 1)
	go func() { done <- Start(ctx, NewMux(ctx, h, 0), "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
