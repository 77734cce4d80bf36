// Package upload implements the chunked upload session subcommands for
// memvaultctl.
package upload

import (
	"github.com/spf13/cobra"
)

// Cmd is the upload subcommand.
var Cmd = &cobra.Command{
	Use:   "upload",
	Short: "Drive chunked upload sessions",
	Long: `Drive the chunked upload session flow for memories too large to
send inline in a single request.

Subcommands:
  put     Upload a local file end-to-end (begin, put chunks, finish)
  begin   Open a new upload session
  chunk   Upload one chunk to an open session
  finish  Commit a session into a memory
  abort   Cancel an open session`,
}

func init() {
	Cmd.AddCommand(putCmd)
	Cmd.AddCommand(beginCmd)
	Cmd.AddCommand(chunkCmd)
	Cmd.AddCommand(finishCmd)
	Cmd.AddCommand(abortCmd)
}
