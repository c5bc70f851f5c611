package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the local store in sync until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("sync scheduler started",
				"device", s.device.ID,
				"remote", s.cfg.Sync.URL,
				"interval", s.cfg.Sync.Interval,
			)

			if err := s.device.Scheduler.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}

			slog.Info("sync scheduler stopped", "cycles", s.device.Scheduler.Cycles())

			return nil
		},
	}
}
