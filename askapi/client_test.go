package askapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientAskSendsQuestion(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"Hi there"}`))
	}))
	defer server.Close()

	c, err := NewClient(ClientConfig{Endpoint: server.URL + Path})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	answer, err := c.Ask(context.Background(), "  Hello ")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer != "Hi there" {
		t.Fatalf("Ask() = %q, want %q", answer, "Hi there")
	}
	if gotMethod != http.MethodPost || gotPath != "/ask" {
		t.Fatalf("request = %s %s, want POST /ask", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["user_q"] != "  Hello " {
		t.Fatalf("user_q = %v, want raw question", gotBody["user_q"])
	}
	if len(gotBody) != 1 {
		t.Fatalf("request body = %v, want only user_q", gotBody)
	}
}

func TestClientAskFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"answer":"ignored"}`},
		{name: "not found", status: http.StatusNotFound, body: `not found`},
		{name: "html body", status: http.StatusOK, body: `<html>oops</html>`},
		{name: "missing answer", status: http.StatusOK, body: `{"detail":"x"}`},
		{name: "null answer", status: http.StatusOK, body: `{"answer":null}`},
		{name: "numeric answer", status: http.StatusOK, body: `{"answer":42}`},
		{name: "array body", status: http.StatusOK, body: `["answer"]`},
		{name: "empty body", status: http.StatusOK, body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := NewClient(ClientConfig{Endpoint: server.URL + Path})
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			answer, err := c.Ask(context.Background(), "q")
			if !errors.Is(err, ErrRequestFailed) {
				t.Fatalf("Ask() error = %v, want ErrRequestFailed", err)
			}
			if answer != "" {
				t.Fatalf("Ask() answer = %q, want empty", answer)
			}
		})
	}
}

func TestClientAskNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL + Path
	server.Close()

	c, err := NewClient(ClientConfig{Endpoint: endpoint})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := c.Ask(context.Background(), "q"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("Ask() error = %v, want ErrRequestFailed", err)
	}
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "   ", "localhost:8000/ask", "ftp://host/ask", "http:///ask"} {
		if _, err := NewClient(ClientConfig{Endpoint: endpoint}); err == nil {
			t.Errorf("NewClient(%q) error = nil, want error", endpoint)
		}
	}
	c, err := NewClient(ClientConfig{Endpoint: " http://localhost:8000/ask "})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.Endpoint() != "http://localhost:8000/ask" {
		t.Fatalf("Endpoint() = %q", c.Endpoint())
	}
}
