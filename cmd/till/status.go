package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local record counts and what still needs to sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			counts, err := s.device.Engine.Status(cmd.Context())
			if err != nil {
				return err
			}

			reachable := "yes"
			if err := s.device.Client.Ping(cmd.Context()); err != nil {
				reachable = "no (" + err.Error() + ")"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "device:  %s\nremote:  %s\nonline:  %s\n\n", s.device.ID, s.cfg.Sync.URL, reachable)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENTITY\tTOTAL\tPENDING")

			for _, entity := range record.PushOrder {
				c := counts[entity]
				fmt.Fprintf(tw, "%s\t%d\t%d\n", entity, c.Total, c.Pending)
			}

			return tw.Flush()
		},
	}
}
