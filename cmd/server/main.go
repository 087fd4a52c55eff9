package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"demoapps"
	"demoapps/internal/config"
	"demoapps/internal/game"
	"demoapps/internal/game/calculator"
	"demoapps/internal/game/snake"
	"demoapps/internal/game/solitaire"
	"demoapps/internal/logger"
	"demoapps/internal/server"
	"demoapps/internal/session"
	"demoapps/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	registry := game.NewRegistry()
	registry.Register(solitaire.Solitaire{})
	registry.Register(snake.Snake{Scores: store, InitialSpeed: cfg.Snake.InitialSpeed})
	registry.Register(calculator.Game{})

	mgr := session.NewManager(registry, store, log.Named("session"))
	if err := mgr.Restore(ctx); err != nil {
		log.Warn("restore sessions", zap.Error(err))
	}
	defer mgr.Shutdown()

	webFS, err := staticFS(cfg.Web.Dir)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.New(registry, mgr, store, webFS, log.Named("http")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mgr.CleanupLoop(gctx, cfg.Session.CleanupInterval, cfg.Session.MaxAge)
		return nil
	})
	g.Go(func() error {
		log.Info("listening", zap.String("addr", httpServer.Addr), zap.String("db", cfg.Database.Path))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Fires on a signal or when the listener fails.
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// staticFS serves dir when set, so the shell can be edited without a
// rebuild, and the embedded copy otherwise.
func staticFS(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	sub, err := fs.Sub(demoapps.WebFS, "web")
	if err != nil {
		return nil, fmt.Errorf("embedded web files: %w", err)
	}
	return sub, nil
}
