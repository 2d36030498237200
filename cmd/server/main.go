package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/go-drawboard/drawboard/internal/api"
	"github.com/go-drawboard/drawboard/internal/auth"
	"github.com/go-drawboard/drawboard/internal/config"
	"github.com/go-drawboard/drawboard/internal/database"
	"github.com/go-drawboard/drawboard/internal/server"
	"github.com/go-drawboard/drawboard/internal/stats"
)

const defaultSigningKey = "x3XMpGL0iJ0aHvXt1uPCgqOtWaZwkXW0vDq4kzZuRcE="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	addr           string
	dsn            string
	migrationsPath string
	signingKey     string
	logLevel       string
	allowedOrigins stringSliceFlag
)

func main() {
	// A .env file is optional; flags and the environment win over it.
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("DRAWBOARD_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", os.Getenv("DRAWBOARD_DSN"), "postgres connection string, empty disables durable storage")
	flag.StringVar(&migrationsPath, "migrations", envOr("DRAWBOARD_MIGRATIONS", "db/migrations"), "path to database migrations")
	flag.StringVar(&signingKey, "signing-key", envOr("DRAWBOARD_SIGNING_KEY", defaultSigningKey), "base64 encoded signing key")
	flag.StringVar(&logLevel, "log-level", envOr("DRAWBOARD_LOG_LEVEL", "info"), "log level")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		if env := os.Getenv("DRAWBOARD_ALLOWED_ORIGINS"); env != "" {
			allowedOrigins = strings.Split(env, ",")
		}
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(logLevel); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := config.NewConfig(addr, dsn, migrationsPath, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config: ", err)
	}

	var repo database.Repository
	if cfg.DatabaseDSN != "" {
		pg, err := database.NewPgRepository(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("db open: ", err)
		}
		if err := pg.Migrate(cfg.MigrationsPath); err != nil {
			logger.Fatal("db migrate: ", err)
		}
		repo = pg
	} else {
		logger.Warn("no database configured, running without durable storage")
		repo = database.NewNopRepository()
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("db close: ", err)
		}
	}()

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)

	tokens := auth.NewTokenManager(cfg.SigningKey)
	boardServer := server.NewBoardServer(logger, repo, tokens, statsUpdater)

	srv := api.NewDrawboardApp(logger, boardServer, repo, cfg, mux)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go boardServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Infof("received signal: %s", sig)
	case err := <-errCh:
		logger.Error("server: ", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatal("HTTP server shutdown: ", err)
	}

	logger.Info("shutting down board server...")
	if err := boardServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatal("board server shutdown: ", err)
	}

	logger.Info("shutdown complete")
}
