package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vitaly-t/equrlity-sub000/cmd/equrlity/output"
)

// userCmd groups user management commands
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

// userCreateCmd registers a new user
var userCreateCmd = &cobra.Command{
	Use:   "create [email]",
	Short: "Register a new user with the initial credit grant",
	Long: `Register a new user. The user name is derived from the email's local part,
suffixed when already taken; without an email an anonymous name is picked.

Examples:
  equrlity user create alice@example.org
  equrlity user create`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := ""
		if len(args) == 1 {
			email = args[0]
		}
		return runUserCreate(email)
	},
}

// userListCmd lists registered users
var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUserList()
	},
}

// userGrantCmd adjusts a user's balance
var userGrantCmd = &cobra.Command{
	Use:   "grant <user-id> <delta>",
	Short: "Adjust a user's credit balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q: %w", args[1], err)
		}
		return runUserGrant(args[0], delta)
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userListCmd, userGrantCmd)
}

func runUserCreate(email string) error {
	ctx := context.Background()
	engine, db, err := setupEngine(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	u, _, err := engine.CreateUser(ctx, email)
	if err != nil {
		output.Error("Failed to create user: %v", err)
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(u)
	}
	output.Success("Created user %s", u.UserName)
	output.Muted("id %s, %d credits", u.UserID, u.Credits)
	return nil
}

func runUserList() error {
	ctx := context.Background()
	engine, db, err := setupEngine(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	users := engine.Users()
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCREDITS\tCONNECTIONS")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
			u.UserID, u.UserName, u.Credits, len(engine.ConnectedUserIDs(u.UserID)))
	}
	return w.Flush()
}

func runUserGrant(userID string, delta int) error {
	ctx := context.Background()
	engine, db, err := setupEngine(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	u, _, err := engine.AdjustBalance(ctx, userID, delta)
	if err != nil {
		output.Error("Failed to adjust balance: %v", err)
		return err
	}
	output.Success("User %s now has %d credits", u.UserName, u.Credits)
	return nil
}
