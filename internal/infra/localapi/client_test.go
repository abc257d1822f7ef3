package localapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"aptimaster-sync/internal/domain"
)

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"http://127.0.0.1:8000/api":    true,
		"http://localhost:8000/api":    true,
		"http://[::1]:8000/api":        true,
		"http://192.168.1.20:8000/api": false,
		"https://example.com/api":      false,
		"::not a url":                  false,
	}
	for in, want := range tests {
		if got := IsLoopback(in); got != want {
			t.Fatalf("IsLoopback(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFetchStateValidatesPayload(t *testing.T) {
	payload := `{"questions":[],"submissions":[],"files":[]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/state":
			_, _ = w.Write([]byte(payload))
		case "/api/health":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	client := NewClient(server.URL+"/api/", nil)
	ctx := context.Background()

	if _, err := client.FetchState(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	payload = `{"questions":null,"submissions":[],"files":[]}`
	if _, err := client.FetchState(ctx); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	if err := client.Health(ctx); !errors.Is(err, domain.ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestWritesUseRESTRoutes(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	var lastQuestion domain.Question
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.EscapedPath()})
		if r.URL.Path == "/api/questions" {
			_ = json.NewDecoder(r.Body).Decode(&lastQuestion)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()
	client := NewClient(server.URL+"/api", nil)
	ctx := context.Background()

	q := domain.Question{ID: "q1", Text: "t", Options: []string{"a", "b", "c", "d"}}
	if err := client.AddQuestion(ctx, q); err != nil {
		t.Fatalf("add question: %v", err)
	}
	if err := client.DeleteQuestion(ctx, "q 1"); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	if err := client.AddSubmission(ctx, domain.Submission{ID: "s1"}); err != nil {
		t.Fatalf("add submission: %v", err)
	}
	if err := client.AddFile(ctx, domain.FileSubmission{ID: "f1"}); err != nil {
		t.Fatalf("add file: %v", err)
	}

	want := []call{
		{http.MethodPost, "/api/questions"},
		{http.MethodDelete, "/api/questions/q%201"},
		{http.MethodPost, "/api/submissions"},
		{http.MethodPost, "/api/files"},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %+v", len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: expected %+v, got %+v", i, want[i], calls[i])
		}
	}
	if lastQuestion.ID != "q1" || len(lastQuestion.Options) != 4 {
		t.Fatalf("unexpected question body %+v", lastQuestion)
	}
}
