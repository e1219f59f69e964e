package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLoadCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "load [dir]",
		Short: "Parse, resolve and summarize every declaration in a catalog directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, client, _, err := loadApp()
			if err != nil {
				return err
			}
			defer client.Close()

			dir := cfg.Catalog.Dir
			if len(args) == 1 {
				dir = args[0]
			}

			queries, err := loadCatalog(dir)
			if err != nil {
				return err
			}

			ctx := context.Background()
			for _, qt := range queries {
				q := qt.Query
				fmt.Printf("%s -> %s.%s (%d version(s))\n", q.Name, q.Destination.Dataset, q.Destination.Table, len(q.Versions))
				for _, v := range q.Versions {
					fmt.Printf("  v%d effective %s, %d revision(s)\n", v.Version, v.EffectiveFrom.Format("2006-01-02"), len(v.Revisions))
				}
				if !migrate {
					continue
				}
				if err := client.EnsureDataset(ctx, q.Destination.Dataset); err != nil {
					return fmt.Errorf("load: ensure dataset for %s: %w", q.Name, err)
				}
				v, ok := q.VersionFor(time.Now())
				if !ok {
					continue
				}
				if err := client.CreateTable(ctx, cfg.Warehouse.Project, q.Destination.Dataset, q.Destination.Table, v.Schema, q.Partition, q.Cluster, nil); err != nil {
					return fmt.Errorf("load: create table for %s: %w", q.Name, err)
				}
			}
			fmt.Printf("loaded %d quer(y/ies) from %s\n", len(queries), dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "ensure each query's destination dataset and table exist")
	return cmd
}
