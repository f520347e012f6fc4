package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/config"
	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/store"
	"github.com/abhisek/mathdrill/internal/streak"
	"github.com/abhisek/mathdrill/internal/tutor"
)

// tutorCacheSize bounds the in-process reply cache.
const tutorCacheSize = 256

// services holds everything commands share, built once from the resolved
// configuration.
type services struct {
	cfg      config.Config
	log      *logging.Logger
	identity auth.Identity

	store    *store.Store
	catalog  *levels.Catalog
	streaks  *streak.Evaluator
	badges   *badges.Service
	goals    *goals.Service
	tracker  *mastery.Tracker
	progress *progress.Loader

	// tutor is never nil; Available reports whether a provider is set.
	tutor *tutor.Tutor

	closers []func() error
}

type serviceOptions struct {
	// logToFile keeps log output off the terminal the UI draws on.
	logToFile bool
	// withTutor resolves an LLM provider and a reply cache.
	withTutor bool
}

func buildServices(ctx context.Context, cmd *cobra.Command, opts serviceOptions) (*services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level, File: cfg.Log.File}
	if opts.logToFile && logOpts.File == "" {
		logOpts.File = logging.DefaultFile()
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dsn, err := resolveDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &services{
		cfg:      cfg,
		log:      log,
		identity: auth.Anonymous(),
		store:    st,
		catalog:  levels.Default(),
		tracker:  mastery.NewTracker(st.PerformanceRepo()),
		streaks:  streak.NewEvaluator(st.StreakRepo(), loc),
		goals:    goals.NewService(st.GoalRepo(), cfg.GoalTarget, loc),
	}
	if cfg.User != "" {
		s.identity = auth.User(cfg.User)
	}
	s.badges = badges.NewService(nil, st.BadgeRepo(), s.streaks)
	s.progress = &progress.Loader{
		Catalog:     s.catalog,
		Performance: st.PerformanceRepo(),
		Streaks:     s.streaks,
		Badges:      s.badges,
		Goals:       s.goals,
		Sessions:    st,
	}

	s.tutor = tutor.New(nil)
	if opts.withTutor {
		if err := s.initTutor(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}

	log.Debug("services ready", "db", st.Dialect(), "user", cfg.User, "tz", loc.String())
	return s, nil
}

// initTutor wires the LLM provider behind the tutor. A missing provider is
// not an error; the AI features are simply unavailable.
func (s *services) initTutor(ctx context.Context) error {
	llmCfg, err := s.cfg.LLM()
	if errors.Is(err, llm.ErrNotConfigured) {
		s.log.Info("llm provider not configured, tutor disabled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	provider, err := llm.New(ctx, llmCfg, s.store.EventRepo(), s.log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider unavailable:", err)
		fmt.Fprintln(os.Stderr, "AI features will be unavailable.")
		s.log.Warn("llm provider init failed", "error", err)
		return nil
	}

	var cache tutor.Cache = tutor.NewMemoryCache(tutorCacheSize)
	if url := s.cfg.Server.RedisURL; url != "" {
		rc, err := tutor.NewRedisCache(ctx, url)
		if err != nil {
			return fmt.Errorf("tutor cache: %w", err)
		}
		s.closers = append(s.closers, rc.Close)
		cache = rc
	}

	s.tutor = tutor.New(provider,
		tutor.WithCache(cache, tutor.DefaultCacheTTL),
		tutor.WithLogger(s.log),
	)
	s.log.Info("tutor enabled", "provider", provider.Name(), "model", provider.ModelID())
	return nil
}

// sessionDeps wires sessions to the persistent services. Sessions built
// from the same Deps share one anonymous advisory.
func (s *services) sessionDeps() session.Deps {
	return session.Deps{
		Questions: problemgen.New(),
		Tracker:   s.tracker,
		Streaks:   s.streaks,
		Badges:    s.badges,
		Goals:     s.goals,
		Events:    s.store.EventRepo(),
		Advisory:  &auth.Advisory{},
		Logger:    s.log,
	}
}

// Close releases the store and any cache connection and flushes logs.
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Warn("close failed", "error", err)
		}
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("close store", "error", err)
	}
	s.log.Sync()
}
