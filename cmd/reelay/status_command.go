package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"reelay/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and account status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				fmt.Fprintf(stdout, "Daemon:     %s\n", runningLabel(status.Running, colorize))
				if status.PID > 0 {
					fmt.Fprintf(stdout, "PID:        %d\n", status.PID)
				}
				fmt.Fprintf(stdout, "Database:   %s\n", status.DatabasePath)
				fmt.Fprintf(stdout, "Tick every: %s\n", formatSeconds(status.Scheduler.TickIntervalSeconds))
				if status.Scheduler.StartedAt != nil {
					fmt.Fprintf(stdout, "Started at: %s\n", status.Scheduler.StartedAt.Local().Format(time.RFC1123))
				}
				fmt.Fprintln(stdout)

				if len(status.Scheduler.Accounts) == 0 {
					fmt.Fprintln(stdout, "No accounts configured")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Account", "Due", "Cooldown left", "Last outcome", "Last error"},
					accountStatusRows(status.Scheduler.Accounts),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func accountStatusRows(accounts []api.AccountStatus) [][]string {
	rows := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		rows = append(rows, []string{
			account.Handle,
			yesNo(account.Due),
			formatSeconds(account.CooldownRemainingSeconds),
			account.LastOutcome,
			truncateCell(account.LastError, 60),
		})
	}
	return rows
}

func runningLabel(running bool, colorize bool) string {
	if running {
		if colorize {
			return text.FgGreen.Sprint("running")
		}
		return "running"
	}
	if colorize {
		return text.FgRed.Sprint("stopped")
	}
	return "stopped"
}

func formatSeconds(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds) * time.Second).String()
}

func truncateCell(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
