package memory

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/output"
	"github.com/memvault/memvault/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list CAPSULE_ID",
	Short: "List the memories in a capsule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		memories, err := client.ListMemories(args[0])
		if err != nil {
			return err
		}

		return cmdutil.PrintOutput(os.Stdout, memories, len(memories) == 0, "No memories found.", &memoryTable{memories: memories})
	},
}

type memoryTable struct {
	memories []apiclient.MemoryHeader
}

func (t *memoryTable) Headers() []string { return []string{"ID", "TYPE", "TITLE", "ASSETS"} }

func (t *memoryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.memories))
	for _, m := range t.memories {
		title := ""
		if m.Title != nil {
			title = *m.Title
		}
		rows = append(rows, []string{m.ID, m.MemoryType, cmdutil.EmptyOr(title, "-"), strconv.Itoa(m.AssetCount)})
	}
	return rows
}

var _ output.TableRenderer = (*memoryTable)(nil)
