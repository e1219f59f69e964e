package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/drift"
)

func newDriftCmd() *cobra.Command {
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "drift <from> <to>",
		Short: "Classify every (query, partition) pair in a date range against the execution ledger",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, client, led, err := loadApp()
			if err != nil {
				return err
			}
			defer client.Close()

			from, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("drift: invalid from date %q: %w", args[0], err)
			}
			to, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("drift: invalid to date %q: %w", args[1], err)
			}

			queries, err := loadCatalog(cfg.Catalog.Dir)
			if err != nil {
				return err
			}
			defs := make([]catalog.QueryDef, 0, len(queries))
			declTexts := map[string]string{}
			for _, qt := range queries {
				defs = append(defs, qt.Query)
				declTexts[qt.Query.Name] = qt.Text
			}

			entries, err := led.Query(context.Background(), "", time.Time{}, time.Time{})
			if err != nil {
				return err
			}

			d := drift.NewDetector()
			report := d.Run(defs, entries, declTexts, from, to)

			for state, count := range report.CountByState() {
				fmt.Printf("%-16s %d\n", state, count)
			}
			for _, dft := range report.NeedsRerun() {
				fmt.Printf("%s %s -> %s\n", dft.QueryName, dft.PartitionKey.String(), dft.State)
				if !showDiff || dft.ExecutedSQLB64 == "" {
					continue
				}
				diffText, err := drift.Diff(dft)
				if err != nil {
					return err
				}
				fmt.Println(diffText)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print the executed-vs-current SQL diff for each drifted partition")
	return cmd
}
