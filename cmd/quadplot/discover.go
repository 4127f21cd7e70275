package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/quadplot/internal/discovery"
)

func newDiscoverCommand(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List peers announced on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.Client.DiscoverTimeout
			}

			peers, err := discovery.Lookup(context.Background(), timeout)
			if err != nil {
				return err
			}
			if len(peers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no peers found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INSTANCE\tENDPOINT")
			for _, p := range peers {
				fmt.Fprintf(w, "%s\t%s\n", p.Instance, p.Endpoint())
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 2*time.Second, "How long to wait for answers")

	return cmd
}
