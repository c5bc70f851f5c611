package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var syncAfter bool

	cmd := &cobra.Command{
		Use:   "import <catalog.csv>",
		Short: "Import a product catalog CSV into the local menu",
		Long: `Import a product catalog exported from a spreadsheet.

The file needs a header row with at least a name and a price column.
Category and active columns are optional. Existing products are matched
by name and updated in place.

Example:
  till import menu.csv
  till import --sync menu.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := s.device.POS.ImportCatalog(cmd.Context(), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "categories added: %d\nproducts added:   %d\nproducts updated: %d\n",
				res.CategoriesAdded, res.ProductsAdded, res.ProductsUpdated)

			for _, sk := range res.Skipped {
				fmt.Fprintf(out, "skipped row %d: %s\n", sk.Row, sk.Reason)
			}

			if !syncAfter {
				return nil
			}

			if r := s.device.SyncNow(cmd.Context()); r.Failed() {
				return fmt.Errorf("imported, but sync failed; records stay pending")
			}

			fmt.Fprintln(out, "synced")

			return nil
		},
	}

	cmd.Flags().BoolVar(&syncAfter, "sync", false, "run a sync cycle after importing")

	return cmd
}
