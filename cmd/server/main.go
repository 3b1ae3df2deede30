// Command server serves a directory of static files, resolving extensionless
// paths and directory indexes the way the map page expects.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storymap/internal/handlers"
	"storymap/internal/staticfs"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	dir      string
	port     string
	index    string
	ext      string
	cacheTTL time.Duration
	logLevel string
}

func defaultPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8000"
}

func newRootCmd() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve a directory of static files",
		Example:       "  server --dir ./web --port 8000",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", "directory to serve")
	cmd.Flags().StringVarP(&opts.port, "port", "p", defaultPort(), "port to listen on")
	cmd.Flags().StringVar(&opts.index, "index", staticfs.DefaultIndex, "file served for directory paths")
	cmd.Flags().StringVar(&opts.ext, "ext", staticfs.DefaultExt, "extension tried for extensionless paths")
	cmd.Flags().DurationVar(&opts.cacheTTL, "cache-ttl", staticfs.DefaultCacheTTL, "how long path resolutions are cached (0 disables)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func serve(ctx context.Context, opts serveOptions) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	info, err := os.Stat(opts.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", opts.dir)
	}

	files := staticfs.New(os.DirFS(opts.dir),
		staticfs.WithIndex(opts.index),
		staticfs.WithExtension(opts.ext),
		staticfs.WithCacheTTL(opts.cacheTTL),
	)
	server := &http.Server{
		Addr:              ":" + opts.port,
		Handler:           handlers.LogRequest(handlers.SecurityHeaders(files)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", "http://localhost:"+opts.port, "dir", opts.dir)
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
		return err
	}
	slog.Info("server stopped")
	return nil
}

func main() {
	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
