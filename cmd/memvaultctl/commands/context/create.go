package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/credentials"
)

var (
	createServerURL string
	createPrincipal string
	createOpaque    string
	createUse       bool
)

var createCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create or update a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}

		if createServerURL == "" {
			return fmt.Errorf("--server is required")
		}

		ctx := &credentials.Context{
			ServerURL: createServerURL,
			Principal: createPrincipal,
			Opaque:    createOpaque,
		}
		if err := store.SetContext(name, ctx); err != nil {
			return fmt.Errorf("failed to save context: %w", err)
		}

		if createUse || store.GetCurrentContextName() == "" {
			if err := store.UseContext(name); err != nil {
				return fmt.Errorf("failed to switch to new context: %w", err)
			}
		}

		cmdutil.PrintSuccess(fmt.Sprintf("context '%s' created", name))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createServerURL, "server", "", "Server URL")
	createCmd.Flags().StringVar(&createPrincipal, "principal", "", "Hex-encoded principal to assert")
	createCmd.Flags().StringVar(&createOpaque, "opaque", "", "Opaque caller reference to assert")
	createCmd.Flags().BoolVar(&createUse, "use", false, "Switch to this context immediately")
}
