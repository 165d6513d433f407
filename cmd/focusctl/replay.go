package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/home-focus/go-core/internal/replay"
)

func replayCmd(_ *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay <fixture>...",
		Short: "Replay fixture cases and check every outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			var all []replay.ReplayResult

			for _, path := range args {
				fx, err := replay.LoadFixture(path)
				if err != nil {
					return err
				}
				results := replay.Replay(fx.ToCases(), fx.Config.ToReplayConfig())
				all = append(all, results...)

				fmt.Fprintf(w, "%s: %s\n", path, fx.Description)
				for _, r := range results {
					mark := "PASS"
					if !r.Passed() {
						mark = "FAIL"
					}
					fmt.Fprintf(w, "  %s  %-7s %-12s %s\n", mark, r.Surfaces.Focus.State, orDash(r.Surfaces.Focus.SourceSystem), r.Name)
					if verbose || !r.Passed() {
						for _, v := range r.Violations {
							fmt.Fprintf(w, "        violation: %s\n", v)
						}
						for _, m := range r.Mismatches {
							fmt.Fprintf(w, "        mismatch:  %s\n", m)
						}
					}
				}
			}

			s := replay.Summarize(all)
			fmt.Fprintf(w, "\n%d cases: %d passed, %d failed (stable=%d watch=%d alert=%d, %d records skipped)\n",
				s.TotalCases, s.Passed, s.Failed, s.Stable, s.Watch, s.Alert, s.Skipped)
			if s.Failed > 0 {
				return fmt.Errorf("%d of %d replay cases failed", s.Failed, s.TotalCases)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print details for passing cases too")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
