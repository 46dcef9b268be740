//go:build !integration

package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"movieReco/pkg/config"

	"github.com/goccy/go-json"
)

func TestHashEmbedder(t *testing.T) {
	h := NewHashEmbedder(256)
	ctx := context.Background()

	a, err := h.Embed(ctx, []string{"Space Adventure!", "space adventure"})
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 2 || len(a[0]) != 256 {
		t.Fatalf("unexpected shape: %d x %d", len(a), len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != a[1][i] {
			t.Fatal("case and punctuation should not change the vector")
		}
	}
	if h.ModelName() != "hash-256" || h.Dimension() != 256 {
		t.Errorf("model=%s dim=%d", h.ModelName(), h.Dimension())
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// answer out of order to exercise index mapping
		resp := embeddingResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{Index: i, Embedding: []float32{float32(len(req.Input[i])), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("key", "text-embedding-3-small", srv.URL+"/v1/", 2, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	vecs, err := e.Embed(context.Background(), []string{"a", "bbb"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 3 {
		t.Errorf("vectors out of order: %v", vecs)
	}
	if auth != "Bearer key" {
		t.Errorf("authorization header = %q", auth)
	}

	if _, err := NewOpenAIEmbedder("", "m", srv.URL, 0, 0); err == nil {
		t.Error("expected missing api key error")
	}
}

func TestOpenAIEmbedderErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: "status 500",
		},
		{
			name: "api error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid"}}`))
			},
			want: "bad model",
		},
		{
			name: "missing vector",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":[]}`))
			},
			want: "no vector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			e := NewOllamaEmbedder("all-minilm", srv.URL, 0, time.Second)
			_, err := e.Embed(context.Background(), []string{"x"})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

type flakyEmbedder struct {
	calls atomic.Int64
}

func (f *flakyEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	f.calls.Add(1)
	return nil, errors.New("connection refused")
}
func (f *flakyEmbedder) Dimension() int    { return 2 }
func (f *flakyEmbedder) ModelName() string { return "flaky" }

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := &flakyEmbedder{}
	b := NewBreakerEmbedder(inner)

	for i := 0; i < 5; i++ {
		if _, err := b.Embed(context.Background(), []string{"x"}); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := b.Embed(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "unavailable") {
		t.Errorf("expected open breaker, got %v", err)
	}
	if inner.calls.Load() != 5 {
		t.Errorf("open breaker should not call through: %d calls", inner.calls.Load())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg     config.EmbeddingConfig
		model   string
		wantErr bool
	}{
		{cfg: config.EmbeddingConfig{Provider: "hash", Dimension: 64}, model: "hash-64"},
		{cfg: config.EmbeddingConfig{Provider: "ollama", Model: "all-minilm"}, model: "all-minilm"},
		{cfg: config.EmbeddingConfig{Provider: "openai", Model: "m"}, wantErr: true},
		{cfg: config.EmbeddingConfig{Provider: "word2vec"}, wantErr: true},
	}

	for _, tt := range tests {
		e, err := New(tt.cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.cfg.Provider)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.cfg.Provider, err)
		}
		if e.ModelName() != tt.model {
			t.Errorf("%s: model = %s", tt.cfg.Provider, e.ModelName())
		}
	}
}
