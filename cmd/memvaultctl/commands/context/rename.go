package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/credentials"
)

var renameCmd = &cobra.Command{
	Use:   "rename OLD_NAME NEW_NAME",
	Short: "Rename a context",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.RenameContext(args[0], args[1]); err != nil {
			return err
		}
		cmdutil.PrintSuccess(fmt.Sprintf("context '%s' renamed to '%s'", args[0], args[1]))
		return nil
	},
}
