package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/go-drawboard/drawboard/internal/config"
	"github.com/go-drawboard/drawboard/internal/database"
	"github.com/go-drawboard/drawboard/internal/server"
)

// DrawboardApp is the HTTP surface: health endpoints plus the two websocket
// entry points that hand connections to the board server.
type DrawboardApp struct {
	log            *logrus.Logger
	mux            *http.Server
	bs             *server.BoardServer
	db             database.Repository
	allowedOrigins []string
}

func NewDrawboardApp(logger *logrus.Logger, bs *server.BoardServer, db database.Repository, cfg *config.Config, statsMux *http.ServeMux) *DrawboardApp {
	s := &DrawboardApp{
		log:            logger,
		bs:             bs,
		db:             db,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.notFound)
	mux.HandleFunc("GET /{$}", s.root)
	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("GET /ws/create", s.serveWsCreate)
	mux.HandleFunc("GET /ws/join/{board_id}", s.serveWsJoin)
	if statsMux != nil {
		mux.Handle("GET /debug/vars", statsMux)
	}

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *DrawboardApp) Start() error {
	s.log.Infof("starting server on %s", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *DrawboardApp) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
