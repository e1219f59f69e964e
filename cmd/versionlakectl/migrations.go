package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrationsCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "migrations",
		Short: "List recorded version bumps, newest last",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, client, _, err := loadApp()
			if err != nil {
				return err
			}
			defer client.Close()

			records, err := migrationTracker(cfg).List(context.Background(), query)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Printf("%s %s %s: v%d -> v%d\n",
					r.AppliedAt.Format("2006-01-02 15:04:05"), r.QueryName, r.PartitionKey.String(), r.FromVersion, r.ToVersion)
			}
			fmt.Printf("%d migration(s)\n", len(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "only list migrations for one query")
	return cmd
}
