package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/observability"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MATHDRILL_HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := buildServices(ctx, cmd, serviceOptions{withTutor: true})
	if err != nil {
		return err
	}
	defer svc.Close()
	cfg := svc.cfg

	shutdown, err := observability.Setup(ctx, cfg.Telemetry,
		observability.WithVersion(version),
		observability.WithLogger(svc.log),
	)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			svc.log.Warn("tracing shutdown", "error", err)
		}
	}()

	verifier := auth.NewVerifier(cfg.Server.JWTSecret, cfg.Server.JWTIssuer)
	if !verifier.Enabled() {
		svc.log.Warn("jwt secret not set, every request is anonymous")
	}

	deps := server.Deps{
		Catalog:   svc.catalog,
		Questions: problemgen.New(),
		Tracker:   svc.tracker,
		Streaks:   svc.streaks,
		Badges:    svc.badges,
		Goals:     svc.goals,
		Events:    svc.store.EventRepo(),
		Progress:  svc.progress,
		LLMEvents: svc.store.LLMEvents(),
		Verifier:  verifier,
		Logger:    svc.log,
	}
	if svc.tutor.Available() {
		deps.Tutor = svc.tutor
	}

	srv := server.New(deps, server.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		CORSOrigins:  cfg.Server.CORSOrigins,
		SessionSize:  cfg.SessionSize,
		LLMRetention: cfg.Server.LLMRetention,
	})
	if err := srv.StartJobs(); err != nil {
		return err
	}
	defer srv.StopJobs()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return srv.Run(ctx, addr)
}
