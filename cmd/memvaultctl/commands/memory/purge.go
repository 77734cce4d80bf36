package memory

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
)

var (
	purgeAll   bool
	purgeIDs   string
	purgeForce bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge CAPSULE_ID",
	Short: "Delete some or all memories in a capsule",
	Long: `Delete multiple memories from a capsule in one request.

Use --all to delete every memory in the capsule, or --ids to delete a
specific set.

Examples:
  memvaultctl memory purge cap_123 --all
  memvaultctl memory purge cap_123 --ids mem_1,mem_2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		capsuleID := args[0]

		if purgeAll == (purgeIDs != "") {
			return fmt.Errorf("specify exactly one of --all or --ids")
		}

		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		label := capsuleID
		return cmdutil.RunDeleteWithConfirmation("memories in capsule", label, purgeForce, func() error {
			if purgeAll {
				return client.DeleteAllMemories(capsuleID)
			}
			return client.DeleteMemories(capsuleID, cmdutil.ParseCommaSeparatedList(purgeIDs))
		})
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeAll, "all", false, "Delete every memory in the capsule")
	purgeCmd.Flags().StringVar(&purgeIDs, "ids", "", "Comma-separated memory IDs to delete")
	purgeCmd.Flags().BoolVarP(&purgeForce, "force", "f", false, "Skip confirmation prompt")
}
