package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelay/internal/api"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List managed accounts and their posting state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				accounts, err := client.Accounts(cmd.Context())
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(accounts) == 0 {
					fmt.Fprintln(stdout, "No accounts configured")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Account", "Display name", "Due", "Last post", "Last shortcode"},
					accountRows(accounts),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func accountRows(accounts []api.AccountStatus) [][]string {
	rows := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		lastPost := "never"
		if account.LastPostAt != nil {
			lastPost = formatAge(time.Since(*account.LastPostAt))
		}
		rows = append(rows, []string{
			account.Handle,
			account.DisplayName,
			yesNo(account.Due),
			lastPost,
			account.LastShortcode,
		})
	}
	return rows
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
