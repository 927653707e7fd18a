package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/taranpreet09/Event-Management-System/pkg/api"
	"github.com/taranpreet09/Event-Management-System/pkg/auth"
	"github.com/taranpreet09/Event-Management-System/pkg/broker"
	"github.com/taranpreet09/Event-Management-System/pkg/config"
	"github.com/taranpreet09/Event-Management-System/pkg/log"
	"github.com/taranpreet09/Event-Management-System/pkg/notify"
	"github.com/taranpreet09/Event-Management-System/pkg/queue"
	"github.com/taranpreet09/Event-Management-System/pkg/realtime"
	"github.com/taranpreet09/Event-Management-System/pkg/store"
)

// ServeCommand creates the serve command: the HTTP/WebSocket gateway process.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the realtime gateway and HTTP API",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"))
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	logger := log.ForService("serve")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	var (
		q   queue.Queue
		b   broker.Broker
		rdb *redis.Client
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing redis_url: %w", err)
		}
		rdb = redis.NewClient(opt)
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warnf("closing redis client: %v", err)
			}
		}()
		q = queue.NewRedisQueue(rdb)
		b = broker.NewRedisBroker(rdb)
		logger.Infof("using redis at %s", opt.Addr)
	} else {
		// Single-process mode: queue and broker live in memory, so the
		// worker loops must run inside this process too.
		q = queue.NewMemoryQueue()
		b = broker.NewMemoryBroker()
		logger.Warnf("redis_url not configured, running with in-process queue and broker")
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warnf("closing store: %v", err)
		}
	}()

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := realtime.NewRegistry()
	gateway := realtime.NewGateway(realtime.Config{
		Verifier:      verifier,
		Store:         st,
		Broker:        b,
		TargetedInbox: cfg.Gateway.TargetedInbox,
		WriteTimeout:  cfg.Gateway.WriteTimeout.Duration,
	}, registry)
	gateway.Start(serveCtx)

	if cfg.RedisURL == "" {
		// In-process fallback for the notification worker.
		go func() {
			_ = notify.NewWorker(q, b, cfg.Worker.Backoff.Duration).Run(serveCtx)
		}()
	}

	producer := notify.NewProducer(q)
	server := api.NewServer(gateway, producer, verifier)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.CorsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Watch the config file so a secret rotation takes effect without a
	// restart.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("creating config watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("closing config watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("watching config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
	}

	reload := func() {
		fresh, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Errorf("reloading config: %v", err)
			return
		}
		verifier.SetSecret(fresh.JWTSecret)
		logger.Infof("configuration reloaded (listen address and database changes need a restart)")
	}

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Infof("received SIGHUP, reloading configuration")
				reload()
				continue
			}
			logger.Infof("shutting down")
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		case event, ok := <-watcherEvents(watcher):
			if !ok {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				logger.Infof("config file changed, reloading")
				reload()
			}
		case err, ok := <-watcherErrors(watcher):
			if ok && err != nil {
				logger.Warnf("config watcher error: %v", err)
			}
		case <-ctx.Done():
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	}
}

// watcherEvents tolerates a nil watcher when creation failed.
func watcherEvents(w *fsnotify.Watcher) chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

func watcherErrors(w *fsnotify.Watcher) chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}
