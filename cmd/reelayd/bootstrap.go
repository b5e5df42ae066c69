package main

import (
	"fmt"

	"log/slog"

	"reelay/internal/cadence"
	"reelay/internal/config"
	"reelay/internal/daemon"
	"reelay/internal/notifications"
	"reelay/internal/pipeline"
	"reelay/internal/provider"
	"reelay/internal/provider/bridge"
	"reelay/internal/scheduler"
	"reelay/internal/store"
)

// buildDaemon wires the store, provider bridge, pipeline, and scheduler into
// a daemon. The returned daemon owns the store; Close releases it.
func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	client := bridge.NewClient(cfg)
	source := bridge.NewSource(client)
	publishers := publisherFactory(client)

	ctrl := cadence.New(st, cfg)
	notifier := notifications.NewService(cfg)
	runner := pipeline.New(cfg, st, ctrl, source, publishers, notifier, logger)
	sched := scheduler.New(cfg, ctrl, runner, logger)

	d, err := daemon.New(cfg, st, logger, sched, notifier)
	if err != nil {
		st.Close()
		return nil, err
	}
	return d, nil
}

// publisherFactory binds each account's handle and session file to a bridge
// publisher sharing one HTTP client.
func publisherFactory(client *bridge.Client) pipeline.PublisherFactory {
	return func(account config.Account) provider.Publisher {
		return bridge.NewPublisher(client, account.Handle, account.SessionFile)
	}
}
