package main

import (
	"context"
	"testing"

	"reelay/internal/config"
	"reelay/internal/logging"
	"reelay/internal/provider/bridge"
	"reelay/internal/testsupport"
)

func TestBuildDaemonWiresSubsystems(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d, err := buildDaemon(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}
	defer d.Close()

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if len(status.Scheduler.Accounts) != 1 {
		t.Fatalf("expected 1 configured account, got %d", len(status.Scheduler.Accounts))
	}
}

func TestPublisherFactoryBindsAccount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := bridge.NewClient(cfg)

	factory := publisherFactory(client)
	pub := factory(config.Account{Handle: "mainacct", SessionFile: "/tmp/session.json"})
	if pub == nil {
		t.Fatal("expected a publisher")
	}
}
