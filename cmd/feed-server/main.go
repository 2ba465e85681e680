package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognicore/feedscope/internal/bootstrap"
	"github.com/cognicore/feedscope/internal/httpapi"
	"github.com/cognicore/feedscope/internal/logging"
	"github.com/cognicore/feedscope/pkg/feedscope/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "Config file (optional, also "+config.ConfigPathEnvVar+")")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath, *addr, *dataDir)
	if err != nil {
		log.Fatal(err)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs, ds, cleanup, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		logging.Err(err).Msg("startup failed")
		os.Exit(1)
	}
	defer cleanup()

	api := httpapi.New(fs, ds, httpapi.Config{
		CORSOrigins:      cfg.Server.CORSOrigins,
		AskRatePerMinute: cfg.Server.AskRatePerMinute,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Err(err).Msg("shutdown")
		}
	}
}

// loadConfig applies flag overrides on top of the layered config.
func loadConfig(path, addr, dataDir string) (*config.App, error) {
	cfg, err := config.LoadApp(path)
	if err != nil {
		return nil, err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, cfg.Validate()
}
