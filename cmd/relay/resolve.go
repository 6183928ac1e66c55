package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type resolvedAccount struct {
	Username       string `json:"username"`
	AccountID      string `json:"account_id,omitempty"`
	Resolved       bool   `json:"resolved"`
	LastSeenPostID string `json:"last_seen_post_id,omitempty"`
}

func newResolveCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the monitored usernames once and print the account table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			tracked, err := a.newResolver().Resolve(cmd.Context(), a.cfg.Relay.Users)
			if err != nil {
				return err
			}

			rows := make([]resolvedAccount, 0, len(tracked))
			for _, t := range tracked {
				rows = append(rows, resolvedAccount{
					Username:       t.Account.Username,
					AccountID:      t.Account.AccountID,
					Resolved:       t.Account.Resolved(),
					LastSeenPostID: t.Cursor.LastSeenPostID,
				})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tACCOUNT ID\tLAST SEEN")
			for _, r := range rows {
				id, last := r.AccountID, r.LastSeenPostID
				if !r.Resolved {
					id = "(unresolved)"
				}
				if last == "" {
					last = "none"
				}
				fmt.Fprintf(tw, "@%s\t%s\t%s\n", r.Username, id, last)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
