package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"rlviz/internal/logging"
	"rlviz/internal/viewer"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the episode viewer server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: os.Stdout,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			v, err := viewer.New(cfg, logger)
			if err != nil {
				return err
			}
			if err := v.Start(signalCtx); err != nil {
				if errors.Is(err, viewer.ErrAlreadyRunning) {
					return fmt.Errorf("%w; stop the other instance or point --config at a different data directory", err)
				}
				return err
			}
			defer v.Stop()

			if path := strings.TrimSpace(storePath); path != "" {
				if err := v.ReplaceStore(signalCtx, path); err != nil {
					return fmt.Errorf("load store %s: %w", path, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Viewer listening on http://%s\n", v.Addr())
			<-signalCtx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "Episode store to load at startup")
	return cmd
}
