package context

import (
	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/credentials"
)

var setPrincipalCmd = &cobra.Command{
	Use:   "set-principal HEX",
	Short: "Set the hex-encoded principal asserted by the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.SetPrincipal(args[0]); err != nil {
			return err
		}
		cmdutil.PrintSuccess("principal updated")
		return nil
	},
}

var setOpaqueCmd = &cobra.Command{
	Use:   "set-opaque REF",
	Short: "Set the opaque caller reference asserted by the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.SetOpaque(args[0]); err != nil {
			return err
		}
		cmdutil.PrintSuccess("opaque reference updated")
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the caller identity from the current context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.ClearCurrentContext(); err != nil {
			return err
		}
		cmdutil.PrintSuccess("caller identity cleared")
		return nil
	},
}
