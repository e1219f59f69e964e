package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/withObsrvr/versionlake/internal/validate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Run the static checks over every declaration in a catalog directory",
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

			errorCount, warningCount := 0, 0
			for _, qt := range queries {
				report := validate.Validate(qt.Query)
				for _, d := range report.Errors {
					fmt.Printf("%s: [%s] %s\n", qt.Query.Name, d.Code, d.Message)
					errorCount++
				}
				for _, d := range report.Warnings {
					fmt.Printf("%s: [%s] %s\n", qt.Query.Name, d.Code, d.Message)
					warningCount++
				}
			}
			fmt.Printf("%d error(s), %d warning(s) across %d quer(y/ies)\n", errorCount, warningCount, len(queries))
			if errorCount > 0 {
				return fmt.Errorf("validate: %d error(s) found", errorCount)
			}
			return nil
		},
	}
}
