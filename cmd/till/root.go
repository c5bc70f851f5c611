package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/tillsync/internal/config"
	"github.com/MrJamesThe3rd/tillsync/internal/device"
	"github.com/MrJamesThe3rd/tillsync/internal/logging"
)

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "till",
		Short:         "Offline-first till with background sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newImportCommand(opts))

	return cmd
}

// session is an opened device plus the resources to release with it.
type session struct {
	cfg    *config.Config
	device *device.Device
	logs   io.Closer
}

func (s *session) Close() error {
	return errors.Join(s.device.Close(), s.logs.Close())
}

func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.App.LogLevel
	if opts.verbose {
		level = "debug"
	}

	logger, logs, err := logging.Setup(logging.Options{
		Level:  level,
		Format: cfg.App.LogFormat,
		File:   cfg.App.LogFile,
	})
	if err != nil {
		return nil, err
	}

	d, err := device.Open(cmd.Context(), cfg, device.WithLogger(logger))
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	return &session{cfg: cfg, device: d, logs: logs}, nil
}
