package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doutora-ia/questbank-cli/internal/model"
	"github.com/doutora-ia/questbank-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only question bank API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/questions", func(w http.ResponseWriter, req *http.Request) {
		filter := store.QuestionFilter{
			Discipline: req.URL.Query().Get("discipline"),
			SourceID:   req.URL.Query().Get("source"),
			Limit:      queryInt(req, "limit", 100),
			Offset:     queryInt(req, "offset", 0),
		}
		if req.URL.Query().Get("needs_review") == "true" {
			filter.NeedsReview = true
		}

		questions, err := st.ListQuestions(req.Context(), filter)
		if err != nil {
			zap.L().Error("listing questions", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if questions == nil {
			questions = []model.QuestionRecord{}
		}
		writeJSON(w, http.StatusOK, questions)
	})

	r.Get("/api/questions/{hash}", func(w http.ResponseWriter, req *http.Request) {
		q, err := st.GetQuestion(req.Context(), chi.URLParam(req, "hash"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "question not found"})
			return
		}
		writeJSON(w, http.StatusOK, q)
	})

	r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		runs, err := st.ListImportRuns(req.Context(), queryInt(req, "limit", 20))
		if err != nil {
			zap.L().Error("listing runs", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if runs == nil {
			runs = []model.ImportRun{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		zap.L().Info("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func queryInt(req *http.Request, name string, fallback int) int {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
