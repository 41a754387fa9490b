package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cartsync/internal/config"
	h "cartsync/internal/http"
	"cartsync/internal/localcache"
	"cartsync/internal/remote"
	"cartsync/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.FromEnv()

	cache, err := localcache.Open(cfg.CachePath, logger)
	if err != nil {
		logger.Error("failed to open cart cache", "path", cfg.CachePath, "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	ctx := context.Background()
	anonID, err := cache.AnonymousID(ctx)
	if err != nil {
		logger.Error("failed to establish anonymous identity", "error", err)
		os.Exit(1)
	}

	var tokens remote.TokenProvider
	if cfg.AuthToken != "" {
		token := cfg.AuthToken
		tokens = func() string { return token }
	}

	remoteClient, err := remote.NewHTTPClient(remote.Config{
		BaseURL:     cfg.RemoteBaseURL,
		Tokens:      tokens,
		AnonymousID: anonID,
		Timeout:     cfg.RemoteTimeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to create remote cart client", "error", err)
		os.Exit(1)
	}

	cartStore := store.NewCartStore(remoteClient, cache, logger)

	// Initial load. A remote failure here is not fatal, the store degrades
	// to the cached snapshot.
	loadCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
	cart, syncState := cartStore.Load(loadCtx)
	cancel()
	logger.Info("cart loaded",
		"items", len(cart.Items),
		"sync_state", syncState.String(),
	)

	cartHandler := h.NewCartHandler(cartStore, cfg.RequestTimeout, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{line_item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{line_item_id}", cartHandler.RemoveItem)
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("cart sync facade listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exited")
}
