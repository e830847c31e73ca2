package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-hub/infrastructure/lineproto"
	"chat-hub/infrastructure/ws"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/services"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns the server lifecycle, so defers
// fire and errors surface in one place instead of os.Exit scattered
// around.
func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// Stores
	media, err := repositories.NewMediaStore(config.DataDir, log)
	if err != nil {
		return err
	}
	messages, err := repositories.NewMessageRepository(config.DataDir, media, log)
	if err != nil {
		return err
	}
	groups, err := repositories.NewGroupRepository(config.DataDir, log)
	if err != nil {
		return err
	}

	// Runtime state and service
	directory := runtime.NewDirectory()
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, groups)
	service := services.NewChatService(log, directory, groups, messages, media, broadcaster)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)

	lineServer := lineproto.NewServer(log, service, registry, directory, config.OutboxCapacity)
	go func() {
		errs <- lineServer.ListenAndServe(ctx, fmt.Sprintf("%s:%d", config.Host, config.TCPPort))
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(log, service, registry, directory, broadcaster, config.OutboxCapacity))
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.HTTPPort),
		Handler: mux,
	}
	go func() {
		log.Info(fmt.Sprintf("WebSocket surface listening on %s/ws", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
			return
		}
		errs <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-errs:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(fmt.Sprintf("HTTP shutdown: %v", err))
	}
	return nil
}
