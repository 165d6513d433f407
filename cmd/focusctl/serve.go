package main

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/home-focus/go-core/internal/narrative"
	"github.com/danielpatrickdp/home-focus/go-core/internal/rpc"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	var record bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the narrative gRPC service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			opts := []rpc.ServerOption{rpc.WithLogger(slog.Default())}
			if record {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, rpc.WithDecisionLog(store.DB()))
			}

			srv := rpc.NewServer(narrative.NewArbiter(a.cfg.Priority.HorizonMonths), a.cfg.NormalizeConfig(), opts...)
			gs := rpc.NewGRPCServer(srv)

			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				slog.Info("shutting down narrative service")
				gs.GracefulStop()
			}()

			slog.Info("narrative service listening", "addr", lis.Addr().String(), "decision_log", record)
			if err := gs.Serve(lis); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&record, "record", true, "append every decision to the decision log")
	return cmd
}
