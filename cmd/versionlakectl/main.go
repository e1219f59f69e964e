// Command versionlakectl is the thin CLI dispatcher over the catalog,
// writer, drift detector and auditors: flag parsing glued to one core
// operation per subcommand, no business logic of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/withObsrvr/versionlake/internal/versionlakeerr"
)

func main() {
	root := &cobra.Command{
		Use:   "versionlakectl",
		Short: "Declarative orchestration for partitioned analytical SQL",
	}
	addGlobalFlags(root)

	root.AddCommand(newLoadCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newBackfillCmd())
	root.AddCommand(newDriftCmd())
	root.AddCommand(newAuditCmd())
	root.AddCommand(newMigrationsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, versionlakeerr.Render(err))
		os.Exit(1)
	}
}
