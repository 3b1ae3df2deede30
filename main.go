package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storymap/internal/config"
	"storymap/internal/handlers"
	"storymap/internal/story"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Structured JSON logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	webFS, err := webFiles(cfg.WebDir)
	if err != nil {
		slog.Error("failed to open web files", "error", err)
		os.Exit(1)
	}

	store := story.LoadOrEmpty(webFS, cfg.StoryFile)
	slog.Info("story loaded", "title", store.Title(), "points", store.Len())

	app, err := handlers.NewApp(webFS, handlers.Options{
		Store:      store,
		SessionTTL: cfg.SessionTTL,
		EventRate:  cfg.EventRate,
		TextSpeed:  &cfg.TextSpeed,
	})
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.LogRequest(handlers.SecurityHeaders(app.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.StartEviction(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		app.Close()
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// webFiles serves from dir when set, so templates and stories can be edited
// without rebuilding.
func webFiles(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(WebFS, "web")
}
