package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/threadline/comments-backend/config"
	"github.com/threadline/comments-backend/middleware"
	"github.com/threadline/comments-backend/routes"
	"github.com/threadline/comments-backend/services"
	"github.com/threadline/comments-backend/store"
	"github.com/threadline/comments-backend/ws"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("register validators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recordStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open comment store")
	}
	defer func() {
		if c, ok := recordStore.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Error().Err(err).Msg("close comment store")
			}
		}
	}()

	hub := ws.NewHub(log)
	defer hub.Close()

	if w, ok := recordStore.(store.Watcher); ok && cfg.WatchBlob {
		err := w.Watch(ctx, hub.NotifyCommentsChanged)
		switch {
		case errors.Is(err, store.ErrWatchUnsupported):
			log.Info().Str("driver", cfg.StoreDriver).Msg("blob medium has no change notifications")
		case err != nil:
			log.Error().Err(err).Msg("watch comment blob")
		}
	}

	metrics := middleware.NewMetrics("comments")
	r := routes.NewEngine(cfg.CORSOrigins, metrics, log)
	routes.SetupRouter(r, routes.Deps{
		Comments: services.NewCommentService(recordStore, log),
		Store:    recordStore,
		Hub:      hub,
		Metrics:  metrics,
		Log:      log,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.StoreDriver).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	log.Info().Msg("server exited cleanly")
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (services.RecordStore, error) {
	if !cfg.Relational() {
		var blob store.Blob
		if cfg.StoreDriver == config.DriverSupabase {
			blob = store.NewSupabaseBlob(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket, cfg.SupabaseObject)
		} else {
			blob = store.NewFileBlob(cfg.BlobPath, log)
		}
		return store.NewBlobStore(blob, log), nil
	}

	db, err := config.OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}
	gormStore := store.NewGormStore(db)
	if err := gormStore.Migrate(ctx); err != nil {
		gormStore.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gormStore, nil
}
