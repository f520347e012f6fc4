package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/app"
	"github.com/abhisek/mathdrill/internal/screen"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func runPlay(cmd *cobra.Command) error {
	svc, err := buildServices(cmd.Context(), cmd, serviceOptions{logToFile: true, withTutor: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	env := &screen.Env{
		Identity:    svc.identity,
		Catalog:     svc.catalog,
		Session:     svc.sessionDeps(),
		SessionSize: svc.cfg.SessionSize,
		Progress:    svc.progress,
		Tutor:       svc.tutor,
		Logger:      svc.log,
	}
	svc.log.Info("starting terminal ui", "user", svc.cfg.User, "tutor", svc.tutor.Available())
	return app.Run(env)
}
