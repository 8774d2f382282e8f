package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/history"
	"github.com/sells-group/price-scout/internal/model"
	"github.com/sells-group/price-scout/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, 0)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			gracefulShutdown(srv, 10*time.Second)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// gracefulShutdown drains in-flight requests for up to grace before the
// server is forced closed. The signal context is already canceled by the
// time this runs, so the drain needs its own deadline.
func gracefulShutdown(srv *http.Server, grace time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

// newRouter builds the API routes over the scrape pipeline.
func newRouter(env *scrapeEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/scrape", func(w http.ResponseWriter, req *http.Request) {
		var sr model.ScrapeRequest
		if err := json.NewDecoder(req.Body).Decode(&sr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if sr.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		if sr.RequestID == "" {
			sr.RequestID = uuid.NewString()
		}

		resp, err := env.Pipeline.Scrape(req.Context(), sr.URL, sr.RequestID)
		if err != nil {
			if errors.Is(err, pipeline.ErrInvalidURL) {
				writeError(w, http.StatusBadRequest, "invalid url")
				return
			}
			zap.L().Error("scrape failed",
				zap.String("url", sr.URL),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "scrape failed")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/api/history", func(w http.ResponseWriter, req *http.Request) {
		limit := 0
		if raw := req.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		entries, err := env.History.Recent(req.Context(), limit)
		if err != nil {
			zap.L().Error("history query failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "history query failed")
			return
		}
		if entries == nil {
			entries = []history.Entry{}
		}

		writeJSON(w, http.StatusOK, entries)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
