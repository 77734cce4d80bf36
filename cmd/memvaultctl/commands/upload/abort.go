package upload

import (
	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
)

var abortCmd = &cobra.Command{
	Use:   "abort SESSION_ID",
	Short: "Cancel an open session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		if err := client.AbortUpload(args[0]); err != nil {
			return err
		}

		cmdutil.PrintSuccess("upload session '" + args[0] + "' aborted")
		return nil
	},
}
