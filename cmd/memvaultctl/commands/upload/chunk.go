package upload

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk SESSION_ID CHUNK_INDEX FILE",
	Short: "Upload one chunk to an open session",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, idxArg, path := args[0], args[1], args[2]

		idx, err := strconv.ParseUint(idxArg, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid chunk index %q: %w", idxArg, err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		if err := client.PutChunk(sessionID, uint32(idx), data); err != nil {
			return err
		}

		cmdutil.PrintSuccess(fmt.Sprintf("chunk %d uploaded to session '%s'", idx, sessionID))
		return nil
	},
}
