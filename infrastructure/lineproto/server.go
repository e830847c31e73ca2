// Package lineproto serves the line-delimited JSON surface: one JSON
// request object per line, one goroutine per connection.
package lineproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"chat-hub/runtime"
	"chat-hub/services"
)

type Server struct {
	log            *slog.Logger
	service        *services.ChatService
	registry       *runtime.Registry
	directory      *runtime.Directory
	outboxCapacity int

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func NewServer(
	log *slog.Logger,
	service *services.ChatService,
	registry *runtime.Registry,
	directory *runtime.Directory,
	outboxCapacity int,
) *Server {
	return &Server{
		log:            log,
		service:        service,
		registry:       registry,
		directory:      directory,
		outboxCapacity: outboxCapacity,
		conns:          make(map[net.Conn]struct{}),
	}
}

// ListenAndServe accepts until the context is canceled. Each connection
// gets its own goroutine; there is no admission control.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.log.Info(fmt.Sprintf("Line protocol listening on %s", ln.Addr()))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		s.track(conn)
		session := NewSession(s.log, conn, s.service, s.registry, s.directory, s.outboxCapacity)
		go func() {
			defer s.untrack(conn)
			session.Run()
		}()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
