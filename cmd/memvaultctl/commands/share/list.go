package share

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/output"
	"github.com/memvault/memvault/pkg/apiclient"
)

var (
	listResourceType    string
	listIncludeInactive bool
)

var listCmd = &cobra.Command{
	Use:   "list RESOURCE_ID",
	Short: "List the shares on a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		shares, err := client.ListShares(listResourceType, args[0], listIncludeInactive)
		if err != nil {
			return err
		}

		return cmdutil.PrintOutput(os.Stdout, shares, len(shares) == 0, "No shares found.", &shareTable{shares: shares})
	},
}

type shareTable struct {
	shares []apiclient.Share
}

func (t *shareTable) Headers() []string {
	return []string{"ID", "RESOURCE_TYPE", "PERM_MASK", "GRANT_SOURCE", "ACTIVE"}
}

func (t *shareTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.shares))
	for _, s := range t.shares {
		rows = append(rows, []string{
			s.ID,
			s.ResourceType,
			strconv.FormatUint(uint64(s.PermMask), 10),
			s.GrantSource,
			cmdutil.BoolToYesNo(s.Active),
		})
	}
	return rows
}

var _ output.TableRenderer = (*shareTable)(nil)

func init() {
	listCmd.Flags().StringVar(&listResourceType, "resource-type", "capsule", "Resource type (capsule|memory|folder|gallery)")
	listCmd.Flags().BoolVar(&listIncludeInactive, "include-inactive", false, "Include revoked shares")
}
