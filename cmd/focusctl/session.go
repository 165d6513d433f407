package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/home-focus/go-core/internal/focus"
	"github.com/danielpatrickdp/home-focus/go-core/internal/gate"
	"github.com/danielpatrickdp/home-focus/go-core/internal/state"
)

// #region session

func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Begin or end a dashboard session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "begin",
		Short: "Start a session and print its ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := store.BeginSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "end <session-id>",
		Short: "Tear a session down, clearing its flags and tab memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.EndSession(cmd.Context(), args[0])
		},
	})
	return cmd
}

func activeSession(ctx context.Context, store *state.Store, id string) error {
	sess, err := store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if !sess.Active() {
		return fmt.Errorf("session %s has ended", id)
	}
	return nil
}

// #endregion session

// #region gate

func gateCmd(a *app) *cobra.Command {
	var policyName string

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Check, fire or reset a session gate flag",
	}
	cmd.PersistentFlags().StringVar(&policyName, "policy", "session", "policy: session, cooldown, daily")

	run := func(action func(cmd *cobra.Command, g *gate.Gate, key string, p gate.Policy) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			p, err := a.policy(policyName)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := activeSession(cmd.Context(), store, args[0]); err != nil {
				return err
			}
			g := gate.NewGate(store.GateStore(args[0]))
			return action(cmd, g, args[1], p)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "check <session-id> <key>",
			Short: "Print whether the flag may fire now",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(cmd *cobra.Command, g *gate.Gate, key string, p gate.Policy) error {
				fmt.Fprintln(cmd.OutOrStdout(), g.Allowed(cmd.Context(), key, p))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "fire <session-id> <key>",
			Short: "Fire the flag if allowed and print whether it fired",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(cmd *cobra.Command, g *gate.Gate, key string, p gate.Policy) error {
				fmt.Fprintln(cmd.OutOrStdout(), g.TryFire(cmd.Context(), key, p))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "reset <session-id> <key>",
			Short: "Forget the flag so it may fire again",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(cmd *cobra.Command, g *gate.Gate, key string, _ gate.Policy) error {
				return g.Reset(cmd.Context(), key)
			}),
		},
	)
	return cmd
}

func (a *app) policy(name string) (gate.Policy, error) {
	switch name {
	case "session":
		return gate.OncePerSession(), nil
	case "cooldown":
		return gate.Cooldown(a.cfg.Gate.BannerCooldown), nil
	case "daily":
		loc, err := a.cfg.Location()
		if err != nil {
			return nil, err
		}
		return gate.OncePerDay(loc), nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}

// #endregion gate

// #region tab

// tabCmd focuses a system through the session's tab memory and prints the tab
// it opens on. Passing a tab records it for the next visit.
func tabCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tab <session-id> <system-id> [tab]",
		Short: "Print or set the remembered tab for a system",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := activeSession(cmd.Context(), store, args[0]); err != nil {
				return err
			}

			target := focus.System{SystemID: args[1]}
			if len(args) == 3 {
				target.Tab = args[2]
			}
			nav := focus.NewNavigator(store.TabMemory(args[0]), a.cfg.Focus.DefaultTab)
			nav.SetFocus(target, focus.Options{Push: true})

			cur, ok := nav.Current().(focus.System)
			if !ok {
				return fmt.Errorf("system %q did not take focus", args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cur.Tab)
			return nil
		},
	}
}

// #endregion tab
