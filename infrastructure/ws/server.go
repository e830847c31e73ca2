// Package ws serves the WebSocket surface. Unlike the line protocol it
// auto-registers unknown client ids on first contact, a behavior kept
// from the original web client.
package ws

import (
	"fmt"
	"log/slog"
	"net/http"

	"chat-hub/runtime"
	"chat-hub/services"

	"github.com/gorilla/websocket"
)

type Server struct {
	log            *slog.Logger
	service        *services.ChatService
	registry       *runtime.Registry
	directory      *runtime.Directory
	broadcaster    *runtime.Broadcaster
	outboxCapacity int
	upgrader       websocket.Upgrader
}

func NewServer(
	log *slog.Logger,
	service *services.ChatService,
	registry *runtime.Registry,
	directory *runtime.Directory,
	broadcaster *runtime.Broadcaster,
	outboxCapacity int,
) *Server {
	return &Server{
		log:            log,
		service:        service,
		registry:       registry,
		directory:      directory,
		broadcaster:    broadcaster,
		outboxCapacity: outboxCapacity,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from any origin; auth is out of
			// scope for this backend.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug(fmt.Sprintf("WebSocket upgrade failed: %v", err))
		return
	}
	session := newSession(s, conn, r.URL.Query().Get("clientId"), r.URL.Query().Get("name"))
	go session.run()
}
