package context

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/credentials"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}

		ctx, err := store.GetCurrentContext()
		if err != nil {
			return fmt.Errorf("no current context. Run 'memvaultctl context create' first")
		}

		row := contextRow{Name: store.GetCurrentContextName(), ServerURL: ctx.ServerURL, Current: true}
		if ctx.Principal != "" {
			row.Identity = ctx.Principal
		} else {
			row.Identity = ctx.Opaque
		}

		return cmdutil.PrintOutput(os.Stdout, row, false, "", &contextTable{rows: []contextRow{row}})
	},
}
