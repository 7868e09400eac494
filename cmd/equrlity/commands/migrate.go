package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitaly-t/equrlity-sub000/cmd/equrlity/output"
	"github.com/vitaly-t/equrlity-sub000/pkg/builder"
	"github.com/vitaly-t/equrlity-sub000/pkg/runtime"
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

var migrateDryRun bool

// migrateCmd creates the schema tables
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	Long: `Create every table of the data model, in dependency order. Existing tables
are left untouched.

Examples:
  equrlity migrate --db postgres://localhost/equrlity
  equrlity migrate --dry-run    # Print the DDL without applying`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Print DDL without applying")
}

func runMigrate() error {
	s, err := schema.Load(schema.DataModel())
	if err != nil {
		return err
	}

	if migrateDryRun {
		output.Section("DRY RUN - Generated DDL")
		for _, name := range s.TableOrder {
			fmt.Println(builder.CreateTable(s.MustTable(name)))
			fmt.Println()
		}
		return nil
	}

	ctx := context.Background()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	output.Section("Creating Tables")
	store := runtime.NewStore(db)
	if err := store.CreateTables(ctx, s); err != nil {
		output.Error("Failed to create tables: %v", err)
		return err
	}
	for _, name := range s.TableOrder {
		output.Success("Ensured %s", name)
	}
	return nil
}
