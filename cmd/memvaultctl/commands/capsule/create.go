package capsule

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/pkg/apiclient"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a capsule",
	Long: `Create a new capsule, owned by the caller by default.

Examples:
  memvaultctl capsule create`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		capsule, err := client.CreateCapsule(apiclient.CreateCapsuleRequest{})
		if err != nil {
			return err
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, capsule, "capsule '"+capsule.ID+"' created")
	},
}
