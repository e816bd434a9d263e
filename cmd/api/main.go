package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/faceid/internal/api"
	"github.com/your-org/faceid/internal/api/ws"
	"github.com/your-org/faceid/internal/attendance"
	"github.com/your-org/faceid/internal/auth"
	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/observability"
	"github.com/your-org/faceid/internal/queue"
	"github.com/your-org/faceid/internal/storage"
	"github.com/your-org/faceid/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting faceid API service", "port", cfg.Server.Port)

	// Connect to Postgres and apply migrations
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	routerCfg := api.RouterConfig{DB: db}

	// MinIO is optional: without it, snapshots are disabled.
	if cfg.MinIO.Endpoint != "" {
		minioStore, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			slog.Error("connect to minio", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBucket(context.Background()); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
		routerCfg.Snapshots = minioStore
		routerCfg.MinIO = minioStore
	}

	// WebSocket hub for the live attendance feed
	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// NATS is optional: without it, decisions are not fanned out.
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStream(context.Background()); err != nil {
			slog.Warn("ensure nats stream", "error", err)
		}
		routerCfg.Publisher = producer
		routerCfg.NATS = producer

		// Bridge attendance events into the WebSocket hub.
		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create attendance consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeDecisions(ctx, "api-attendance", func(ctx context.Context, msg jetstream.Msg) error {
			var evt dto.AttendanceEvent
			if err := json.Unmarshal(msg.Data(), &evt); err != nil {
				return err
			}
			hub.BroadcastRaw(msg.Data())
			return nil
		})
		if err != nil {
			slog.Warn("start attendance consumer", "error", err)
		}
	}

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	routerCfg.Attendance = attendance.NewService(db, db, cfg.Matching)
	routerCfg.Auth = auth.NewService(db, issuer)
	routerCfg.Issuer = issuer
	routerCfg.Directory = db
	routerCfg.Records = db
	routerCfg.Hub = hub

	router := api.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
