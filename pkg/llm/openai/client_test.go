package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haggleops/haggle/pkg/llm"
)

func completionsStub(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token")
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
		}
	}))
}

func TestGenerate(t *testing.T) {
	srv := completionsStub(t, http.StatusOK, "### STRATEGY: polite")
	defer srv.Close()

	c := New("sk-test", srv.URL, "gpt-4o-mini", time.Second)
	out, err := c.Generate(context.Background(), "sys", "user", llm.Options{Temperature: 0.5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "### STRATEGY: polite" {
		t.Errorf("out = %q", out)
	}
}

func TestGenerateAuthFailureIsResponseError(t *testing.T) {
	srv := completionsStub(t, http.StatusUnauthorized, "")
	defer srv.Close()

	c := New("sk-bad", srv.URL, "gpt-4o-mini", time.Second)
	_, err := c.Generate(context.Background(), "sys", "user", llm.Options{})
	if !errors.Is(err, llm.ErrEngineResponse) {
		t.Fatalf("401 must map to ErrEngineResponse, got %v", err)
	}
	if errors.Is(err, llm.ErrEngineUnavailable) {
		t.Error("auth failures are not transient")
	}
}

func TestGenerateTransientStatusIsUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := completionsStub(t, status, "")
		c := New("sk-test", srv.URL, "gpt-4o-mini", time.Second)
		_, err := c.Generate(context.Background(), "sys", "user", llm.Options{})
		srv.Close()
		if !errors.Is(err, llm.ErrEngineUnavailable) {
			t.Errorf("status %d must map to ErrEngineUnavailable, got %v", status, err)
		}
	}
}

func TestGenerateUnreachableBackend(t *testing.T) {
	// Reserve a port, then close it so nothing is listening.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New("sk-test", url, "gpt-4o-mini", 2*time.Second)
	start := time.Now()
	_, err := c.Generate(context.Background(), "sys", "user", llm.Options{})
	if !errors.Is(err, llm.ErrEngineUnavailable) {
		t.Fatalf("unreachable backend must map to ErrEngineUnavailable, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("failure must surface within the configured timeout bound")
	}
}

func TestGenerateEmptyAPIKey(t *testing.T) {
	c := New("", "http://localhost:1", "gpt-4o-mini", time.Second)
	_, err := c.Generate(context.Background(), "sys", "user", llm.Options{})
	if !errors.Is(err, llm.ErrEngineResponse) {
		t.Fatalf("empty api key must fail before any request, got %v", err)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := New("sk-test", srv.URL, "gpt-4o-mini", time.Second)
	_, err := c.Generate(context.Background(), "sys", "user", llm.Options{})
	if !errors.Is(err, llm.ErrEngineResponse) {
		t.Fatalf("empty choices must map to ErrEngineResponse, got %v", err)
	}
}

func TestSelfTest(t *testing.T) {
	srv := completionsStub(t, http.StatusOK, "ok")
	defer srv.Close()

	ok, msg := New("sk-test", srv.URL, "gpt-4o-mini", time.Second).SelfTest(context.Background())
	if !ok {
		t.Fatalf("SelfTest failed: %s", msg)
	}

	down := completionsStub(t, http.StatusUnauthorized, "")
	defer down.Close()
	ok, msg = New("sk-bad", down.URL, "gpt-4o-mini", time.Second).SelfTest(context.Background())
	if ok {
		t.Error("SelfTest must fail on auth errors")
	}
	if msg == "" {
		t.Error("failed SelfTest must explain itself")
	}
}
