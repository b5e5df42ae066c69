package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"reelay/internal/cadence"
	"reelay/internal/config"
	"reelay/internal/logging"
	"reelay/internal/notifications"
	"reelay/internal/pipeline"
	"reelay/internal/provider"
	"reelay/internal/provider/bridge"
	"reelay/internal/scheduler"
	"reelay/internal/store"
)

// newRunCommand processes every due account once without the daemon. It
// refuses to run while a daemon holds the instance lock so per-account
// serialization stays intact.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process due accounts once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForDaemon(); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "reelayd.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("daemon is running; stop it before one-shot mode")
			}
			defer lock.Unlock()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			client := bridge.NewClient(cfg)
			ctrl := cadence.New(st, cfg)
			runner := pipeline.New(cfg, st, ctrl, bridge.NewSource(client),
				func(account config.Account) provider.Publisher {
					return bridge.NewPublisher(client, account.Handle, account.SessionFile)
				},
				notifications.NewService(cfg), logger)

			scheduler.New(cfg, ctrl, runner, logger).RunOnce(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Run complete")
			return nil
		},
	}
}
