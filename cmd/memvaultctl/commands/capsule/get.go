package capsule

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/output"
)

var getCmd = &cobra.Command{
	Use:   "get CAPSULE_ID",
	Short: "Read a capsule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		c, err := client.GetCapsule(args[0])
		if err != nil {
			return err
		}

		return cmdutil.PrintResource(os.Stdout, c, &capsuleDetailTable{id: c.ID, numMemories: c.NumMemories, inlineBytesUsed: c.InlineBytesUsed})
	},
}

type capsuleDetailTable struct {
	id              string
	numMemories     int
	inlineBytesUsed uint64
}

func (t *capsuleDetailTable) Headers() []string { return []string{"FIELD", "VALUE"} }

func (t *capsuleDetailTable) Rows() [][]string {
	return [][]string{
		{"id", t.id},
		{"num_memories", strconv.Itoa(t.numMemories)},
		{"inline_bytes_used", strconv.FormatUint(t.inlineBytesUsed, 10)},
	}
}

var _ output.TableRenderer = (*capsuleDetailTable)(nil)
