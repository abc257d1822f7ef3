package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/domain"
)

// BackendHandler serves the local backend REST API under /api.
type BackendHandler struct {
	service *app.BackendService
	now     func() time.Time
}

func NewBackendHandler(service *app.BackendService) *BackendHandler {
	return &BackendHandler{service: service, now: time.Now}
}

// Register mounts the REST routes on mux.
func (h *BackendHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("GET /api/state", h.state)
	mux.HandleFunc("POST /api/questions", h.addQuestion)
	mux.HandleFunc("DELETE /api/questions/{id}", h.deleteQuestion)
	mux.HandleFunc("POST /api/submissions", h.addSubmission)
	mux.HandleFunc("POST /api/files", h.addFile)
}

func (h *BackendHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{Status: "ok", Timestamp: h.now().UTC()})
}

func (h *BackendHandler) state(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.State(r.Context())
	if err != nil {
		log.Printf("load state: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load state")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, snap.Clone())
}

func (h *BackendHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := decodeBody(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question payload")
		return
	}
	h.respond(w, "add question", h.service.AddQuestion(r.Context(), q))
}

func (h *BackendHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.respond(w, "delete question", h.service.DeleteQuestion(r.Context(), r.PathValue("id")))
}

func (h *BackendHandler) addSubmission(w http.ResponseWriter, r *http.Request) {
	var s domain.Submission
	if err := decodeBody(w, r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid submission payload")
		return
	}
	h.respond(w, "add submission", h.service.AddSubmission(r.Context(), s))
}

func (h *BackendHandler) addFile(w http.ResponseWriter, r *http.Request) {
	var f domain.FileSubmission
	if err := decodeBody(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid file payload")
		return
	}
	h.respond(w, "add file", h.service.AddFile(r.Context(), f))
}

func (h *BackendHandler) respond(w http.ResponseWriter, op string, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, statusPayload{Status: "ok"})
	case errors.Is(err, domain.ErrInvalidEntity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}
