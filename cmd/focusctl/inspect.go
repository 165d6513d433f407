package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/home-focus/go-core/internal/logging"
)

func inspectCmd(a *app) *cobra.Command {
	var last int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List recent decisions from the decision log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := logging.ListDecisions(store.DB(), last)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(w, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(w, "no decisions found")
				return nil
			}

			fmt.Fprintf(w, "%-10s  %-7s  %-11s  %-14s  %-10s  %-24s  %s\n",
				"Decision", "State", "Source", "System", "Hash", "Explanation", "Time")
			for _, r := range rows {
				fmt.Fprintf(w, "%-10s  %-7s  %-11s  %-14s  %-10s  %-24s  %s\n",
					shortID(r.DecisionID), r.State, r.Source, orDash(r.SourceSystem),
					shortID(r.ContextHash), r.Explanation, r.CreatedAt.Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "show N most recent decisions")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
