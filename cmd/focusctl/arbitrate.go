package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/home-focus/go-core/internal/logging"
	"github.com/danielpatrickdp/home-focus/go-core/internal/narrative"
	"github.com/danielpatrickdp/home-focus/go-core/internal/priority"
	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
	"github.com/danielpatrickdp/home-focus/go-core/internal/upstream"
)

type arbitrateOutput struct {
	narrative.Surfaces
	Primary     string               `json:"primary,omitempty"`
	Selection   priority.Explanation `json:"selection"`
	ContextHash string               `json:"context_hash"`
	Skipped     []signals.SkipReason `json:"skipped,omitempty"`
	DecisionID  string               `json:"decision_id,omitempty"`
}

func arbitrateCmd(a *app) *cobra.Command {
	var record bool
	var sessionID string

	cmd := &cobra.Command{
		Use:   "arbitrate <snapshot.yaml|json>",
		Short: "Arbitrate the narrative for an upstream snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := upstream.Load(args[0])
			if err != nil {
				return err
			}

			ctx, report := snap.Context(a.cfg.NormalizeConfig())
			for _, r := range report.Reasons {
				slog.Warn("skipped record", "index", r.Index, "system", r.SystemKey, "reason", r.Reason)
			}

			arb := narrative.NewArbiter(a.cfg.Priority.HorizonMonths)
			sel := arb.Primary(ctx)
			out := arbitrateOutput{
				Surfaces:    arb.Resolve(ctx),
				Selection:   sel.Explanation,
				ContextHash: narrative.ContextHash(ctx),
				Skipped:     report.Reasons,
			}
			if sel.Primary != nil {
				out.Primary = sel.Primary.Key
			}

			if record {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				entry, err := logging.LogDecision(store.DB(), logging.DecisionEntry{
					SessionID:     sessionID,
					ContextHash:   out.ContextHash,
					State:         string(out.Focus.State),
					Source:        string(out.Focus.Source),
					SourceSystem:  out.Focus.SourceSystem,
					Explanation:   string(out.Focus.Explanation),
					PositionLabel: string(out.Position.Label),
				})
				if err != nil {
					return err
				}
				out.DecisionID = entry.DecisionID
			}

			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&record, "record", false, "append the decision to the decision log")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to attach to the logged decision")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
