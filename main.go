// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quickly-poll/accounts"
	"github.com/danielhkuo/quickly-poll/apperr"
	"github.com/danielhkuo/quickly-poll/auth"
	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/db"
	"github.com/danielhkuo/quickly-poll/events"
	"github.com/danielhkuo/quickly-poll/metrics"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/polls"
	"github.com/danielhkuo/quickly-poll/router"
	"github.com/danielhkuo/quickly-poll/store"
)

func main() {
	var err error
	ctx := context.Background()

	cliparse.LoadDotEnv()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open storage
	var st store.Store
	if cfg.DatabaseType == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")
		st = store.NewMemoryStore()
	} else {
		dbConn, err := openDatabase(cfg)
		if err != nil {
			slog.Error("database setup failed", "error", err, "type", cfg.DatabaseType)
			os.Exit(1)
		}
		defer dbConn.Close()
		slog.Info("Database schema ready", "type", cfg.DatabaseType)
		st = store.NewSQLStore(dbConn)
	}

	// Optional Redis cache in front of user lookups
	if cfg.RedisURL != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, user cache disabled", "error", err)
		} else {
			defer rdb.Close()
			st = store.NewUserCache(st, rdb, cfg.UserCacheTTL)
			slog.Info("user cache enabled", "ttl", cfg.UserCacheTTL)
		}
	}

	// Optional Kafka vote events
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("publishing vote events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	voteMetrics := metrics.NewVoteMetrics(prometheus.DefaultRegisterer, "quickly_poll")
	tokens := auth.NewTokenProvider(cfg.JWTSecret, cfg.JWTExpiry)

	accountService := accounts.NewService(st, tokens)
	pollService := polls.NewService(st,
		polls.Pager{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize},
		polls.WithMetrics(voteMetrics),
		polls.WithPublisher(publisher),
	)

	// Registration cannot work without the default role
	if err := accountService.RequireRoles(ctx, models.RoleUser); err != nil {
		var cfgErr *apperr.ConfigurationError
		if errors.As(err, &cfgErr) {
			slog.Error("reference data missing", "error", err)
		} else {
			slog.Error("role check failed", "error", err)
		}
		os.Exit(1)
	}

	// Create router
	handler := router.NewRouter(router.Deps{
		Polls:    pollService,
		Accounts: accountService,
		Tokens:   tokens,
		Metrics:  prometheus.DefaultGatherer,
	})

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(handler),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openDatabase connects, verifies the connection and creates the schema
func openDatabase(cfg cliparse.Config) (*sql.DB, error) {
	driver, err := db.DriverName(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}

	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseType == db.DialectSQLite {
		// SQLite allows a single writer
		dbConn.SetMaxOpenConns(1)
	}

	if err := dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, err
	}

	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		dbConn.Close()
		return nil, err
	}
	return dbConn, nil
}
