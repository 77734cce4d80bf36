package share

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/pkg/apiclient"
)

var (
	createResourceType  string
	createTargetPrin    string
	createTargetOpaque  string
	createPermMask      uint8
)

var createCmd = &cobra.Command{
	Use:   "create RESOURCE_ID",
	Short: "Grant a principal or opaque identity access to a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targetEnvelope(createTargetPrin, createTargetOpaque)
		if err != nil {
			return err
		}

		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		shareID, err := client.CreateShare(apiclient.CreateShareRequest{
			ResourceType: createResourceType,
			ResourceID:   args[0],
			Target:       target,
			PermMask:     createPermMask,
		})
		if err != nil {
			return err
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, map[string]string{"id": shareID}, "share '"+shareID+"' created")
	},
}

func init() {
	createCmd.Flags().StringVar(&createResourceType, "resource-type", "capsule", "Resource type (capsule|memory|folder|gallery)")
	createCmd.Flags().StringVar(&createTargetPrin, "target-principal", "", "Grantee's hex-encoded principal")
	createCmd.Flags().StringVar(&createTargetOpaque, "target-opaque", "", "Grantee's opaque reference")
	createCmd.Flags().Uint8Var(&createPermMask, "perm-mask", 0, "Permission bitmask to grant")
	_ = createCmd.MarkFlagRequired("perm-mask")
}
