package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/withObsrvr/versionlake/internal/orchestrator"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/writer"
)

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill <query> <from> <to>",
		Short: "Write every partition of one query over a range, continuing past failures",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, client, led, err := loadApp()
			if err != nil {
				return err
			}
			defer client.Close()

			queries, err := loadCatalog(cfg.Catalog.Dir)
			if err != nil {
				return err
			}
			q, ok := findQuery(queries, args[0])
			if !ok {
				return fmt.Errorf("backfill: no declared query named %q", args[0])
			}

			from, err := partition.Parse(args[1], q.Query.Partition.Type)
			if err != nil {
				return err
			}
			to, err := partition.Parse(args[2], q.Query.Partition.Type)
			if err != nil {
				return err
			}

			if err := led.Ensure(context.Background()); err != nil {
				return err
			}
			o := orchestrator.New(writer.New(client), led)
			o.Migrations = migrationTracker(cfg)
			o.Logger = logger
			report := o.Backfill(context.Background(), q.Query, from, to, q.Text)

			for _, f := range report.Failures {
				logger.WithFields(map[string]interface{}{"query": f.QueryName, "partition": f.PartitionKey.String()}).Error(f.Error)
			}
			fmt.Printf("%d succeeded, %d failed\n", len(report.Succeeded), len(report.Failures))
			if len(report.Failures) > 0 {
				return fmt.Errorf("backfill: %d partition(s) failed", len(report.Failures))
			}
			return nil
		},
	}
}
