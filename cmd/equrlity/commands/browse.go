package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vitaly-t/equrlity-sub000/cmd/equrlity/output"
	"github.com/vitaly-t/equrlity-sub000/cmd/equrlity/tui"
)

var browsePlain bool

// browseCmd browses the link forest
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the link forest",
	Long: `Browse shared links interactively: navigate the list and open a link to see
its promotion chain back to the root.

Examples:
  equrlity browse
  equrlity browse --plain    # Non-interactive table output
  equrlity browse --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse()
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().BoolVar(&browsePlain, "plain", false, "Print a table instead of the interactive UI")
}

func runBrowse() error {
	ctx := context.Background()
	engine, db, err := setupEngine(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(engine.Links())
	}

	if browsePlain {
		links := engine.Links()
		if len(links) == 0 {
			output.Info("No links shared yet")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tCOMMENT\tOWNER\tAMOUNT\tDEPTH")
		for _, l := range links {
			owner := l.UserID
			if u, ok := engine.GetUser(l.UserID); ok {
				owner = u.UserName
			}
			depth, _ := engine.Depth(l.LinkID)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", l.LinkID, l.Comment, owner, l.Amount, depth)
		}
		return w.Flush()
	}

	return tui.RunBrowseUI(engine)
}
