package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelay/internal/api"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var account string
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				entries, err := client.Logs(cmd.Context(), account, limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(stdout, "No activity recorded")
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintln(stdout, formatActivityLine(entry))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Filter by account handle")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries to show")
	return cmd
}

func formatActivityLine(entry api.ActivityEntry) string {
	parts := []string{
		entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		strings.ToUpper(entry.Level),
	}
	if entry.Account != "" {
		parts = append(parts, "["+entry.Account+"]")
	}
	parts = append(parts, entry.Message)
	return strings.Join(parts, " ")
}
