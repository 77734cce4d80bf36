package capsule

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/output"
	"github.com/memvault/memvault/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List capsules visible to the caller",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		capsules, err := client.ListCapsules()
		if err != nil {
			return err
		}

		return cmdutil.PrintOutput(os.Stdout, capsules, len(capsules) == 0, "No capsules found.", &capsuleTable{capsules: capsules})
	},
}

type capsuleTable struct {
	capsules []apiclient.CapsuleHeader
}

func (t *capsuleTable) Headers() []string { return []string{"ID", "MEMORIES"} }

func (t *capsuleTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.capsules))
	for _, c := range t.capsules {
		rows = append(rows, []string{c.ID, strconv.Itoa(c.NumMemories)})
	}
	return rows
}

var _ output.TableRenderer = (*capsuleTable)(nil)
