package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/immutability"
	"github.com/withObsrvr/versionlake/internal/ledger"
	"github.com/withObsrvr/versionlake/internal/sourceaudit"
)

func newAuditCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "audit",
		Short: "Audit declared SQL sources against execution history",
	}
	root.AddCommand(newAuditImmutabilityCmd())
	root.AddCommand(newAuditSourcesCmd())
	return root
}

func loadQueriesAndEntries() ([]catalog.QueryDef, []ledger.Entry, error) {
	cfg, _, client, led, err := loadApp()
	if err != nil {
		return nil, nil, err
	}
	defer client.Close()

	queries, err := loadCatalog(cfg.Catalog.Dir)
	if err != nil {
		return nil, nil, err
	}
	defs := make([]catalog.QueryDef, 0, len(queries))
	for _, qt := range queries {
		defs = append(defs, qt.Query)
	}

	entries, err := led.Query(context.Background(), "", time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	return defs, entries, nil
}

func newAuditImmutabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "immutability",
		Short: "Report every declared source whose SQL differs from what the ledger recorded as having run",
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, entries, err := loadQueriesAndEntries()
			if err != nil {
				return err
			}
			violations := immutability.Audit(queries, entries)
			for _, v := range violations {
				revision := "base"
				if v.Source.Revision != nil {
					revision = fmt.Sprintf("revision %d", *v.Source.Revision)
				}
				fmt.Printf("%s v%d %s: stored SQL differs from current SQL across %d partition date(s)\n", v.Source.Query, v.Source.Version, revision, len(v.Dates))
			}
			fmt.Printf("%d violation(s)\n", len(violations))
			if len(violations) > 0 {
				return fmt.Errorf("audit immutability: %d violation(s) found", len(violations))
			}
			return nil
		},
	}
}

func newAuditSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Classify every declared source as NeverExecuted, Current or Modified",
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, entries, err := loadQueriesAndEntries()
			if err != nil {
				return err
			}
			reports := sourceaudit.Audit(queries, entries)
			for _, r := range reports {
				revision := "base"
				if r.Source.Revision != nil {
					revision = fmt.Sprintf("revision %d", *r.Source.Revision)
				}
				fmt.Printf("%s v%d %s: %s (%d execution(s))\n", r.Source.Query, r.Source.Version, revision, r.Classification, r.ExecutionCount)
			}
			for class, count := range sourceaudit.Aggregate(reports) {
				fmt.Printf("%-16s %d\n", class, count)
			}
			return nil
		},
	}
}
