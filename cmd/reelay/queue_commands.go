package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelay/internal/api"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage scheduled reposts",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				items, err := client.QueueList(cmd.Context(), account)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Account", "Shortcode", "Scheduled", "Status"},
					queueRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Filter by account handle")
	return cmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var scheduledAt string

	cmd := &cobra.Command{
		Use:   "add <account> <shortcode>",
		Short: "Schedule a repost",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.EnqueueRequest{Account: args[0], Shortcode: args[1]}
			if scheduledAt != "" {
				when, err := time.Parse(time.RFC3339, scheduledAt)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				req.ScheduledAt = &when
			}
			return ctx.withClient(func(client *api.Client) error {
				item, err := client.QueueAdd(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s for %s (id %d)\n",
					item.Shortcode, item.Account, item.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scheduledAt, "at", "", "Scheduled time (RFC 3339); defaults to now")
	return cmd
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid queue item id %q", args[0])
			}
			return ctx.withClient(func(client *api.Client) error {
				item, err := client.QueueSetStatus(cmd.Context(), id, "cancelled")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled queue item %d (%s)\n", item.ID, item.Shortcode)
				return nil
			})
		},
	}
}

func queueRows(items []api.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Account,
			item.Shortcode,
			item.ScheduledAt.Local().Format("2006-01-02 15:04"),
			item.Status,
		})
	}
	return rows
}
