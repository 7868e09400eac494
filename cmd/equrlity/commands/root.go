package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/vitaly-t/equrlity-sub000/pkg/ledger"
	"github.com/vitaly-t/equrlity-sub000/pkg/runtime"
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

var (
	// Global flags
	dbURL      string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "equrlity",
	Short: "eqURLity - a credit ledger for shared and promoted links",
	Long: `eqURLity tracks who shares, promotes, and views content links, and moves
credits along the promotion chains.

Commands:
  migrate       - Create the database tables
  user create   - Register a new user with the initial credit grant
  browse        - Browse the link forest interactively`,
	Version: "0.3.1",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			jww.SetStdoutThreshold(jww.LevelDebug)
		} else {
			jww.SetStdoutThreshold(jww.LevelWarn)
		}
		if dbURL == "" {
			dbURL = viper.GetString("db")
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (or EQURLITY_DB)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	viper.SetEnvPrefix("EQURLITY")
	viper.AutomaticEnv()
}

// connect opens the database named by --db or EQURLITY_DB.
func connect(ctx context.Context) (*runtime.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("--db flag or EQURLITY_DB is required")
	}
	return runtime.ConnectWithURL(ctx, dbURL)
}

// setupEngine connects, builds the engine over the data model, and loads the
// caches from storage. The caller closes the returned DB.
func setupEngine(ctx context.Context) (*ledger.Engine, *runtime.DB, error) {
	s, err := schema.Load(schema.DataModel())
	if err != nil {
		return nil, nil, err
	}
	db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	engine := ledger.New(s, runtime.NewStore(db))
	if err := engine.Load(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return engine, db, nil
}
