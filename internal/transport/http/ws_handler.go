package http

import (
	"log"
	"net/http"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams the local backend's change revisions so clients can sync right away
// instead of waiting for their next poll tick.
type WSHandler struct {
	service  *app.BackendService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.BackendService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

func (h *WSHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ws", h.ServeWS)
}

// ServeWS upgrades the request and pushes a "revision" message for the current state and
// every later change. Inbound frames are ignored; reading only detects disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe(r.Context())
	defer cancel()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case rev, ok := <-updates:
				if !ok {
					return
				}
				msg := outboundMessage[domain.Revision]{Type: "revision", Payload: rev}
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-writerDone
}
