package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelay/internal/api"
)

func newAnalyticsCommand(ctx *commandContext) *cobra.Command {
	var showItems bool

	cmd := &cobra.Command{
		Use:   "analytics <account>",
		Short: "Show engagement totals for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle := args[0]
			return ctx.withClient(func(client *api.Client) error {
				summary, err := client.Analytics(cmd.Context(), handle)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Account:         %s\n", summary.Account)
				fmt.Fprintf(stdout, "Posts:           %d\n", summary.TotalPosts)
				fmt.Fprintf(stdout, "Views:           %d\n", summary.Views)
				fmt.Fprintf(stdout, "Likes:           %d\n", summary.Likes)
				fmt.Fprintf(stdout, "Comments:        %d\n", summary.Comments)
				fmt.Fprintf(stdout, "Shares:          %d\n", summary.Shares)
				fmt.Fprintf(stdout, "Engagement rate: %.2f%%\n", summary.EngagementRate)

				if !showItems {
					return nil
				}
				items, err := client.AccountItems(cmd.Context(), handle)
				if err != nil {
					return err
				}
				if len(items.Posted) == 0 {
					fmt.Fprintln(stdout, "\nNo posts recorded")
					return nil
				}
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, renderTable(
					[]string{"Shortcode", "Posted", "Views", "Likes", "Comments", "Shares"},
					postedRows(items.Posted),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showItems, "items", false, "Include per-post metrics")
	return cmd
}

func postedRows(items []api.PostedItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Shortcode,
			item.PostedAt.Local().Format("2006-01-02 15:04"),
			strconv.FormatInt(item.Views, 10),
			strconv.FormatInt(item.Likes, 10),
			strconv.FormatInt(item.Comments, 10),
			strconv.FormatInt(item.Shares, 10),
		})
	}
	return rows
}
