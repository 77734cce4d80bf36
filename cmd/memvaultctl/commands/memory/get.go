package memory

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/output"
)

var getCmd = &cobra.Command{
	Use:   "get MEMORY_ID",
	Short: "Read a memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		mem, err := client.GetMemory(args[0])
		if err != nil {
			return err
		}

		assetCount := len(mem.InlineAssets) + len(mem.BlobInternalAssets) + len(mem.BlobExternalAssets)
		return cmdutil.PrintResource(os.Stdout, mem, &memoryDetailTable{id: mem.ID, assetCount: assetCount})
	},
}

type memoryDetailTable struct {
	id         string
	assetCount int
}

func (t *memoryDetailTable) Headers() []string { return []string{"FIELD", "VALUE"} }

func (t *memoryDetailTable) Rows() [][]string {
	return [][]string{
		{"id", t.id},
		{"asset_count", strconv.Itoa(t.assetCount)},
	}
}

var _ output.TableRenderer = (*memoryDetailTable)(nil)
