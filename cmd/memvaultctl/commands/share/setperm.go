package share

import (
	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
)

var setPermMask uint8

var setPermCmd = &cobra.Command{
	Use:   "set-perm SHARE_ID",
	Short: "Change the permission mask on an existing share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		if err := client.UpdateSharePermissions(args[0], setPermMask); err != nil {
			return err
		}

		cmdutil.PrintSuccess("share '" + args[0] + "' permissions updated")
		return nil
	},
}

func init() {
	setPermCmd.Flags().Uint8Var(&setPermMask, "perm-mask", 0, "New permission bitmask")
	_ = setPermCmd.MarkFlagRequired("perm-mask")
}
