package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/netutil"

	"todos/internal/config"
	"todos/internal/handler"
	"todos/internal/live"
	"todos/internal/logging"
	"todos/internal/store"
	"todos/internal/store/pgstore"
	"todos/internal/worker"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	opts := logging.DefaultOptions()
	opts.Level = cfg.LogLevel
	opts.Format = cfg.LogFormat
	logger := logging.New(os.Stderr, opts)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", "err", err)
	}
}

// openStore builds the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config, logger *log.Logger) (store.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.BackendPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return store.NewFileStore(cfg.DataFile, logger), func() {}, nil
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	// ---------- Storage ----------
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	s, closeStore, err := openStore(ctx, cfg, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	// ---------- Writes ----------
	var writes worker.Runner = worker.Direct{}
	if cfg.SerializeWrites {
		q := worker.NewQueue(worker.Config{
			QueueSize:  cfg.QueueSize,
			JobTimeout: worker.DefaultConfig().JobTimeout,
		}, logger.WithPrefix("writes"))
		defer q.Stop()
		writes = q
	}

	// ---------- Live feed ----------
	hub := live.NewHub(logger.WithPrefix("live"))
	if cfg.Watch {
		w := live.NewWatcher(cfg.DataFile, s, hub, logger.WithPrefix("watch"))
		if err := w.Start(); err != nil {
			return fmt.Errorf("watch data file: %w", err)
		}
		defer w.Stop()
	}

	// ---------- HTTP ----------
	h := handler.New(s, writes, hub, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Handler:      logging.Middleware(logger)(mux),
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		IdleTimeout:  cfg.IdleTimeout.Duration,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	if cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConns)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String(), "backend", cfg.Backend, "serialize_writes", cfg.SerializeWrites)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
