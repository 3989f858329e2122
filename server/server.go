// Package server implements the /ask HTTP endpoint backed by an LLM provider.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/linanwx/askchat/askapi"
	"github.com/linanwx/askchat/internal/health"
	"github.com/linanwx/askchat/logger"
	"github.com/linanwx/askchat/provider"
)

const (
	maxRequestBodyBytes = 1 << 20
	shutdownTimeout     = 10 * time.Second

	errorAnswerPrefix = "Something went wrong: "
)

// Config holds the endpoint settings.
type Config struct {
	Addr              string
	AllowedOrigins    []string
	PromptTemplate    string // %s is replaced by the question
	MaxTokens         int
	Temperature       *float64 // nil = provider default
	TopP              *float64
	FrequencyPenalty  *float64
	MaxQuestionTokens int // 0 disables the cap

	// Provider and Model label the /healthz report.
	Provider string
	Model    string
}

// Server answers questions posted to /ask.
type Server struct {
	cfg      Config
	provider provider.Provider
	limiter  *questionLimiter
	router   chi.Router

	startedAt time.Time
	answered  atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// New builds a server around p.
func New(cfg Config, p provider.Provider) (*Server, error) {
	if p == nil {
		return nil, errors.New("server: provider is nil")
	}
	limiter, err := newQuestionLimiter(cfg.MaxQuestionTokens)
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, provider: p, limiter: limiter, startedAt: time.Now()}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post(askapi.Path, s.handleAsk)
	r.Get("/healthz", s.handleHealth)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ask server listening", "addr", s.cfg.Addr, "path", askapi.Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ask server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ask server shutdown: %w", err)
	}
	logger.Info("ask server stopped")
	return nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	question, err := askapi.DecodeQuestion(body)
	if err != nil {
		s.rejected.Add(1)
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	answer := s.answer(r.Context(), question)

	out, err := askapi.EncodeAnswer(answer)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "failed to encode answer")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

// answer never fails: provider errors become a readable answer so the chat
// shows something, and are logged for the operator.
func (s *Server) answer(ctx context.Context, question string) string {
	question, promptTokens := s.limiter.Cap(question)
	prompt := buildPrompt(s.cfg.PromptTemplate, question)

	logger.Info("answering question", "questionTokens", promptTokens, "promptChars", len(prompt))

	resp, err := s.provider.Chat(ctx, &provider.Request{
		Messages:         []provider.Message{provider.UserMessage(prompt)},
		MaxTokens:        s.cfg.MaxTokens,
		Temperature:      s.cfg.Temperature,
		TopP:             s.cfg.TopP,
		FrequencyPenalty: s.cfg.FrequencyPenalty,
	})
	if err != nil {
		s.failed.Add(1)
		logger.Error("failed to generate answer", "err", err)
		return errorAnswerPrefix + err.Error()
	}
	s.answered.Add(1)
	return strings.TrimSpace(resp.Content)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := health.Collect(health.Options{
		StartedAt: s.startedAt,
		Provider:  s.cfg.Provider,
		Model:     s.cfg.Model,
		Answered:  s.answered.Load(),
		Failed:    s.failed.Load(),
		Rejected:  s.rejected.Load(),
	})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func buildPrompt(template, question string) string {
	if template == "" {
		return question
	}
	if !strings.Contains(template, "%s") {
		return template + "\n\n" + question
	}
	return strings.Replace(template, "%s", question, 1)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info(
			"http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"requestID", middleware.GetReqID(r.Context()),
			"latencyMs", time.Since(start).Milliseconds(),
		)
	})
}
