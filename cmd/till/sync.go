package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle and print what it did",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.device.SyncNow(cmd.Context())

			if asJSON {
				err = writeResultJSON(cmd.OutOrStdout(), res)
			} else {
				err = writeResult(cmd.OutOrStdout(), res)
			}

			if err != nil {
				return err
			}

			if res.Failed() {
				return fmt.Errorf("sync finished with errors")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func writeResult(out io.Writer, res reconcile.Result) error {
	if res.Err != nil {
		_, err := fmt.Fprintf(out, "sync did not run: %v\n", res.Err)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ENTITY\tPENDING\tCONFIRMED\tPULLED\tCHANGED\tERROR")

	for _, entity := range record.PushOrder {
		er, ok := res.Entities[entity]
		if !ok {
			continue
		}

		errText := "-"
		if er.Err != nil {
			errText = er.Err.Error()
		}

		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%t\t%s\n", entity, er.Pending, er.Confirmed, er.Pulled, er.Changed, errText)
	}

	fmt.Fprintf(tw, "\nfinished in %s, local data changed: %t\n", res.Duration.Round(time.Millisecond), res.Changed)

	return tw.Flush()
}

type entityJSON struct {
	Bootstrapped bool   `json:"bootstrapped"`
	Pending      int    `json:"pending"`
	Confirmed    int    `json:"confirmed"`
	Pulled       int    `json:"pulled"`
	Changed      bool   `json:"changed"`
	Error        string `json:"error,omitempty"`
}

func writeResultJSON(out io.Writer, res reconcile.Result) error {
	entities := make(map[record.Entity]entityJSON, len(res.Entities))

	for entity, er := range res.Entities {
		ej := entityJSON{
			Bootstrapped: er.Bootstrapped,
			Pending:      er.Pending,
			Confirmed:    er.Confirmed,
			Pulled:       er.Pulled,
			Changed:      er.Changed,
		}
		if er.Err != nil {
			ej.Error = er.Err.Error()
		}

		entities[entity] = ej
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	doc := map[string]any{
		"startedAt":  res.StartedAt,
		"durationMs": res.Duration.Milliseconds(),
		"changed":    res.Changed,
		"entities":   entities,
	}
	if res.Err != nil {
		doc["error"] = res.Err.Error()
	}

	return enc.Encode(doc)
}
