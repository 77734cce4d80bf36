package share

import (
	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
)

var revokeForce bool

var revokeCmd = &cobra.Command{
	Use:   "revoke SHARE_ID",
	Short: "Deactivate a share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		return cmdutil.RunDeleteWithConfirmation("share", args[0], revokeForce, func() error {
			return client.RevokeShare(args[0])
		})
	},
}

func init() {
	revokeCmd.Flags().BoolVarP(&revokeForce, "force", "f", false, "Skip confirmation prompt")
}
