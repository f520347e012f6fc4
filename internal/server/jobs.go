package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// pruneAt is the UTC time of day the retention job runs.
const pruneAt = "03:00"

// StartJobs schedules background maintenance. It is a no-op without an
// LLM event store or retention period.
func (s *Server) StartJobs() error {
	if s.deps.LLMEvents == nil || s.cfg.LLMRetention <= 0 {
		return nil
	}
	s.cron = gocron.NewScheduler(time.UTC)
	if _, err := s.cron.Every(1).Day().At(pruneAt).SingletonMode().Do(s.pruneLLMEvents); err != nil {
		return fmt.Errorf("schedule llm event pruning: %w", err)
	}
	s.cron.StartAsync()
	s.log.Info("background jobs started", "llm_retention", s.cfg.LLMRetention.String())
	return nil
}

func (s *Server) StopJobs() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Server) pruneLLMEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.deps.Now().Add(-s.cfg.LLMRetention)
	n, err := s.deps.LLMEvents.Prune(ctx, cutoff)
	if err != nil {
		s.log.Error("llm event pruning failed", "error", err)
		return
	}
	s.log.Info("llm events pruned", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
}
