package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/voidchat/relay/internal/config"
	"github.com/voidchat/relay/internal/database"
	"github.com/voidchat/relay/internal/server"
)

type VoidChatApp struct {
	log            *log.Logger
	db             database.ChatRepository
	mux            *http.Server
	hub            *server.RelayHub
	allowedOrigins []string
}

func NewVoidChatApp(mux *http.ServeMux, logger *log.Logger, hub *server.RelayHub, db database.ChatRepository, cfg *config.Config) *VoidChatApp {
	s := &VoidChatApp{
		log:            logger,
		db:             db,
		hub:            hub,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /api/servers", s.listServers)
	mux.HandleFunc("GET /api/servers/{serverId}/channels", s.listChannels)
	mux.HandleFunc("GET /api/channels/{channelId}/messages", s.listMessages)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *VoidChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *VoidChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
