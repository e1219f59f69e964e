package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/withObsrvr/versionlake/internal/orchestrator"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/writer"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <query> <partition-key>",
		Short: "Write one partition of one query",
		Args:  cobra.ExactArgs(2),
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
				return fmt.Errorf("run: no declared query named %q", args[0])
			}

			key, err := partition.Parse(args[1], q.Query.Partition.Type)
			if err != nil {
				return err
			}

			if err := led.Ensure(context.Background()); err != nil {
				return err
			}
			o := orchestrator.New(writer.New(client), led)
			o.Migrations = migrationTracker(cfg)
			o.Logger = logger

			result, err := o.RunPartition(context.Background(), q.Query, key, q.Text)
			if err != nil {
				logger.WithFields(map[string]interface{}{"query": args[0], "partition": args[1]}).WithError(err).Error("run failed")
				return err
			}
			logger.WithFields(map[string]interface{}{"query": args[0], "partition": args[1], "version": result.Version}).Info("run committed")
			return nil
		},
	}
}

func findQuery(queries []queryWithText, name string) (queryWithText, bool) {
	for _, q := range queries {
		if q.Query.Name == name {
			return q, true
		}
	}
	return queryWithText{}, false
}
