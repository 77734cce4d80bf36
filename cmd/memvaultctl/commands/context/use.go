package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/credentials"
)

var useCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Switch to a different context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.UseContext(args[0]); err != nil {
			return err
		}
		cmdutil.PrintSuccess(fmt.Sprintf("switched to context '%s'", args[0]))
		return nil
	},
}
