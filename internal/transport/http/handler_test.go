package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/domain"
	"aptimaster-sync/internal/infra/memory"
)

func newBackendServer(t *testing.T) (*httptest.Server, *app.BackendService) {
	t.Helper()
	service := app.NewBackendService(memory.NewStateRepository(), app.NewRevisionFeed())
	mux := http.NewServeMux()
	NewBackendHandler(service).Register(mux)
	NewWSHandler(service).Register(mux)
	server := httptest.NewServer(WithCORS(mux))
	t.Cleanup(server.Close)
	return server, service
}

func newBlobServer(t *testing.T, prefix string) (*httptest.Server, *memory.BlobRepository) {
	t.Helper()
	repo := memory.NewBlobRepository()
	mux := http.NewServeMux()
	NewBlobHandler(app.NewBlobService(repo), prefix).Register(mux)
	server := httptest.NewServer(WithCORS(mux))
	t.Cleanup(server.Close)
	return server, repo
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func testQuestion(id string) domain.Question {
	return domain.Question{
		ID:            id,
		Text:          "What is 2+2?",
		Category:      "Quantitative",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: 1,
		Difficulty:    domain.DifficultyEasy,
	}
}

func testSubmission(id, questionID string) domain.Submission {
	return domain.Submission{
		ID:         id,
		StudentID:  "student-1",
		QuestionID: questionID,
		Answer:     1,
		IsCorrect:  true,
		Timestamp:  time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		NoteID:     "NOTE-654321",
	}
}

func TestBackendRESTFlow(t *testing.T) {
	server, _ := newBackendServer(t)
	base := server.URL + "/api"

	if resp := doJSON(t, http.MethodGet, base+"/health", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.StatusCode)
	}

	for _, q := range []domain.Question{testQuestion("q1"), testQuestion("q2")} {
		resp := doJSON(t, http.MethodPost, base+"/questions", q)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add question: expected 200, got %d", resp.StatusCode)
		}
		var status statusPayload
		_ = json.NewDecoder(resp.Body).Decode(&status)
		if status.Status != "ok" {
			t.Fatalf("expected status ok, got %+v", status)
		}
	}
	doJSON(t, http.MethodPost, base+"/submissions", testSubmission("s1", "q1"))
	doJSON(t, http.MethodPost, base+"/submissions", testSubmission("s2", "q2"))
	doJSON(t, http.MethodPost, base+"/files", domain.FileSubmission{
		ID: "f1", StudentID: "student-1", FileName: "a.txt", FileType: "text/plain",
		FileData: "data:text/plain;base64,aGVsbG8=",
	})

	if resp := doJSON(t, http.MethodDelete, base+"/questions/q1", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, base+"/state", nil)
	data, _ := io.ReadAll(resp.Body)
	snap, err := domain.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode state: %v (%s)", err, data)
	}
	if ids := snap.QuestionIDs(); len(ids) != 1 || ids[0] != "q2" {
		t.Fatalf("expected [q2], got %v", ids)
	}
	if len(snap.Submissions) != 1 || snap.Submissions[0].ID != "s2" {
		t.Fatalf("expected cascade to leave s2, got %+v", snap.Submissions)
	}
	if len(snap.Files) != 1 {
		t.Fatalf("expected one file, got %d", len(snap.Files))
	}
}

func TestBackendRejectsInvalidPayloads(t *testing.T) {
	server, _ := newBackendServer(t)
	base := server.URL + "/api"

	bad := testQuestion("q1")
	bad.Options = []string{"only", "two"}
	if resp := doJSON(t, http.MethodPost, base+"/questions", bad); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid question, got %d", resp.StatusCode)
	}

	resp, err := http.Post(base+"/submissions", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error == "" {
		t.Fatalf("expected an error message")
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newBackendServer(t)
	resp := doJSON(t, http.MethodOptions, server.URL+"/api/questions", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestBlobStoreLifecycle(t *testing.T) {
	for _, prefix := range []string{DefaultBlobPrefix, "/"} {
		t.Run(prefix, func(t *testing.T) {
			server, repo := newBlobServer(t, prefix)
			base := strings.TrimRight(server.URL+"/"+strings.Trim(prefix, "/"), "/")

			created := doJSON(t, http.MethodPost, base, domain.EmptySnapshot())
			if created.StatusCode != http.StatusCreated {
				t.Fatalf("create: expected 201, got %d", created.StatusCode)
			}
			location := created.Header.Get("Location")
			id := created.Header.Get("X-Jsonblob-Id")
			if id == "" || location != base+"/"+id {
				t.Fatalf("unexpected location %q for id %q", location, id)
			}
			if repo.Len() != 1 {
				t.Fatalf("expected one stored blob, got %d", repo.Len())
			}

			next := domain.EmptySnapshot()
			next.Questions = append(next.Questions, testQuestion("q1"))
			if resp := doJSON(t, http.MethodPut, location, next); resp.StatusCode != http.StatusOK {
				t.Fatalf("put: expected 200, got %d", resp.StatusCode)
			}

			resp := doJSON(t, http.MethodGet, location, nil)
			data, _ := io.ReadAll(resp.Body)
			snap, err := domain.DecodeSnapshot(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ids := snap.QuestionIDs(); len(ids) != 1 || ids[0] != "q1" {
				t.Fatalf("expected [q1], got %v", ids)
			}
		})
	}
}

func TestBlobStoreErrors(t *testing.T) {
	server, _ := newBlobServer(t, "")
	base := server.URL + DefaultBlobPrefix

	if resp := doJSON(t, http.MethodGet, base+"/missing", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get unknown: expected 404, got %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodPut, base+"/missing", domain.EmptySnapshot()); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("put unknown: expected 404, got %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodPost, base, map[string]any{"questions": []any{}}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("create invalid: expected 400, got %d", resp.StatusCode)
	}
}
