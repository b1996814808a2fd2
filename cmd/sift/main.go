package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/netutil"

	"github.com/contentlabs/sift/internal/api"
	"github.com/contentlabs/sift/internal/capability"
	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/database"
	"github.com/contentlabs/sift/internal/detect"
	"github.com/contentlabs/sift/internal/models"
	"github.com/contentlabs/sift/internal/ratelimit"
	"github.com/contentlabs/sift/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	generateConfig := flag.Bool("generate-config", false, "write a sample configuration file and exit")
	flag.Parse()

	if *generateConfig {
		if err := config.GenerateSample(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write sample config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Sample configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audit store")
	}
	defer store.Close()

	textCap, err := capability.New(models.KindText, &cfg.Capabilities.Text)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize text capability")
	}
	imageCap, err := capability.New(models.KindImage, &cfg.Capabilities.Image)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize image capability")
	}

	policy := capability.DefaultRetryPolicy()
	textAdapter := capability.NewAdapter(textCap, time.Duration(cfg.Capabilities.Text.TimeoutSeconds)*time.Second, policy)
	imageAdapter := capability.NewAdapter(imageCap, time.Duration(cfg.Capabilities.Image.TimeoutSeconds)*time.Second, policy)

	limiter := ratelimit.New(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	defer limiter.Close()

	engine := detect.NewEngine(detect.NewValidator(cfg.Limits), limiter, textAdapter, imageAdapter)

	router := api.NewRouter(cfg, engine, store, web.StaticFS)

	// The write timeout must outlive the worst case of two full capability
	// attempts plus response encoding.
	maxTimeout := cfg.Capabilities.Text.TimeoutSeconds
	if cfg.Capabilities.Image.TimeoutSeconds > maxTimeout {
		maxTimeout = cfg.Capabilities.Image.TimeoutSeconds
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(2*maxTimeout+10) * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}
	if cfg.Server.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConns)
	}

	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("text_capability", textAdapter.Name()).
			Str("image_capability", imageAdapter.Name()).
			Bool("audit", cfg.Database.Enabled).
			Msg("Server starting")
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func newStore(cfg *config.Config) (database.Store, error) {
	if !cfg.Database.Enabled {
		return database.NewNoopStore(), nil
	}
	return database.NewSQLiteStore(cfg.Database.Path)
}
