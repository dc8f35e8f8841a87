package textgen_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tailored-agentic-units/procure/textgen"
)

func completionsServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) string {
	return `{"choices":[{"message":{"content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestHTTPGenerator_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := completionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completion("the reply")))
	})

	gen := textgen.NewHTTPGenerator(textgen.Config{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "test-model",
	}, nil)

	got, err := gen.Generate(context.Background(), textgen.Request{
		Prompt: "hello",
		System: "be brief",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "the reply" {
		t.Errorf("got %q, want the reply", got)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}
	if gotBody.Model != "test-model" {
		t.Errorf("model = %q, want test-model", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 ||
		gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Errorf("messages = %+v, want system then user", gotBody.Messages)
	}
}

func TestHTTPGenerator_OmitsEmptySystemMessage(t *testing.T) {
	var count int
	srv := completionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []json.RawMessage `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		count = len(body.Messages)
		w.Write([]byte(completion("ok")))
	})

	gen := textgen.NewHTTPGenerator(textgen.Config{BaseURL: srv.URL}, nil)
	if _, err := gen.Generate(context.Background(), textgen.Request{Prompt: "hello"}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if count != 1 {
		t.Errorf("sent %d messages, want 1 when no system instruction is set", count)
	}
}

func TestHTTPGenerator_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		sentinel  error
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, textgen.ErrRateLimited, true},
		{"unauthorized", http.StatusUnauthorized, textgen.ErrUnauthorized, false},
		{"forbidden", http.StatusForbidden, textgen.ErrUnauthorized, false},
		{"server error", http.StatusInternalServerError, textgen.ErrServer, true},
		{"bad gateway", http.StatusBadGateway, textgen.ErrServer, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionsServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			gen := textgen.NewHTTPGenerator(textgen.Config{BaseURL: srv.URL}, nil)
			_, err := gen.Generate(context.Background(), textgen.Request{Prompt: "hello"})
			if err == nil {
				t.Fatal("Generate() succeeded, want error")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
			if textgen.IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", textgen.IsTransient(err), tt.transient)
			}
			if textgen.IsFatal(err) == tt.transient {
				t.Errorf("IsFatal = %v, want %v", textgen.IsFatal(err), !tt.transient)
			}
		})
	}
}

func TestHTTPGenerator_BadRequestIsFatal(t *testing.T) {
	srv := completionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	gen := textgen.NewHTTPGenerator(textgen.Config{BaseURL: srv.URL}, nil)
	_, err := gen.Generate(context.Background(), textgen.Request{Prompt: "hello"})
	if !textgen.IsFatal(err) {
		t.Errorf("error = %v, want fatal for unexpected status", err)
	}
}

func TestHTTPGenerator_EmptyChoicesTransient(t *testing.T) {
	srv := completionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	gen := textgen.NewHTTPGenerator(textgen.Config{BaseURL: srv.URL}, nil)
	_, err := gen.Generate(context.Background(), textgen.Request{Prompt: "hello"})
	if !textgen.IsTransient(err) {
		t.Errorf("error = %v, want transient for empty choices", err)
	}
}

func TestHTTPGenerator_MalformedBodyFatal(t *testing.T) {
	srv := completionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	gen := textgen.NewHTTPGenerator(textgen.Config{BaseURL: srv.URL}, nil)
	_, err := gen.Generate(context.Background(), textgen.Request{Prompt: "hello"})
	if !textgen.IsFatal(err) {
		t.Errorf("error = %v, want fatal for undecodable body", err)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := textgen.DefaultConfig()
	cfg.Merge(&textgen.Config{
		BaseURL: "http://example.test/v1",
		Retry:   textgen.RetryConfig{MaxAttempts: 5},
	})

	if cfg.BaseURL != "http://example.test/v1" {
		t.Errorf("base url = %q, want override", cfg.BaseURL)
	}
	if cfg.Model != "llama3.2" {
		t.Errorf("model = %q, want default preserved", cfg.Model)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BackoffBaseMillis != 2000 {
		t.Errorf("backoff base = %d, want default preserved", cfg.Retry.BackoffBaseMillis)
	}
}
