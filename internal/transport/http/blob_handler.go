package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/domain"
)

// DefaultBlobPrefix mirrors the public jsonblob API layout.
const DefaultBlobPrefix = "/api/jsonBlob"

// BlobHandler serves the remote shared store: POST {prefix}, GET/PUT {prefix}/{id}.
// A prefix of "/" serves the store at the root.
type BlobHandler struct {
	service *app.BlobService
	prefix  string
}

func NewBlobHandler(service *app.BlobService, prefix string) *BlobHandler {
	if prefix == "" {
		prefix = DefaultBlobPrefix
	}
	h := &BlobHandler{service: service}
	if trimmed := strings.Trim(prefix, "/"); trimmed != "" {
		h.prefix = "/" + trimmed
	}
	return h
}

func (h *BlobHandler) Register(mux *http.ServeMux) {
	if h.prefix == "" {
		mux.HandleFunc("POST /{$}", h.create)
	} else {
		mux.HandleFunc("POST "+h.prefix, h.create)
	}
	mux.HandleFunc("GET "+h.prefix+"/{id}", h.get)
	mux.HandleFunc("PUT "+h.prefix+"/{id}", h.put)
}

func (h *BlobHandler) create(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	id, err := h.service.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, "create blob", err)
		return
	}
	w.Header().Set("Location", requestOrigin(r)+h.prefix+"/"+id)
	w.Header().Set("X-Jsonblob-Id", id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(payload)
}

func (h *BlobHandler) get(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Fetch(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "get blob", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *BlobHandler) put(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), r.PathValue("id"), payload); err != nil {
		h.fail(w, "put blob", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *BlobHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "blob not found")
	case errors.Is(err, domain.ErrInvalidSnapshot):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func readPayload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return nil, false
	}
	return payload, true
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
