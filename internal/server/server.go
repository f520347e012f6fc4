// Package server exposes practice, progress and tutor operations over a
// JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/tutor"
)

// MaxQuestions caps the count accepted by POST /api/sessions.
const MaxQuestions = 50

type ProgressLoader interface {
	Load(ctx context.Context, userID string, now time.Time) (*progress.Overview, error)
}

type Tutor interface {
	AskQuestion(ctx context.Context, question string) (string, error)
	QuestionHelp(ctx context.Context, f problemgen.Fact) (tutor.Help, error)
}

// Pruner deletes LLM request events older than cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Deps are the services behind the handlers. Catalog and Questions are
// required; a nil Tutor answers tutor routes with 503.
type Deps struct {
	Catalog   *levels.Catalog
	Questions session.QuestionSource
	Tracker   session.PerformanceTracker
	Streaks   session.StreakEvaluator
	Badges    session.BadgeRefresher
	Goals     session.GoalRecorder
	Events    session.EventRecorder
	Progress  ProgressLoader
	Tutor     Tutor
	LLMEvents Pruner

	Verifier *auth.Verifier
	Logger   *logging.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

type Config struct {
	ServiceName  string
	CORSOrigins  []string
	SessionSize  int
	LLMRetention time.Duration
}

type Server struct {
	deps   Deps
	cfg    Config
	log    *logging.Logger
	engine *gin.Engine
	cron   *gocron.Scheduler
}

func New(deps Deps, cfg Config) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.SessionSize <= 0 {
		cfg.SessionSize = session.DefaultSize
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "mathdrill"
	}
	s := &Server{
		deps: deps,
		cfg:  cfg,
		log:  logging.OrNop(deps.Logger).With("component", "server"),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.cfg.ServiceName))
	r.Use(corsMiddleware(s.cfg.CORSOrigins))
	r.Use(identify(s.deps.Verifier, s.log))
	r.Use(requestLogger(s.log))

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.GET("/levels", s.listLevels)
		api.POST("/sessions", s.startSession)
		api.POST("/ask-math-question", s.askQuestion)
		api.POST("/get-question-help", s.questionHelp)
	}

	protected := api.Group("")
	protected.Use(requireUser())
	{
		protected.POST("/answers", s.submitAnswer)
		protected.POST("/sessions/complete", s.completeSession)
		protected.GET("/progress", s.getProgress)
	}
	return r
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
