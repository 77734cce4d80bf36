// Package capsule implements capsule management subcommands for
// memvaultctl.
package capsule

import (
	"github.com/spf13/cobra"
)

// Cmd is the capsule subcommand.
var Cmd = &cobra.Command{
	Use:     "capsule",
	Aliases: []string{"capsules"},
	Short:   "Manage capsules",
	Long: `Manage capsules: the top-level container owning a subject's memories.

Subcommands:
  create  Create a capsule
  list    List capsules visible to the caller
  get     Read a capsule
  delete  Delete a capsule and all of its memories`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(deleteCmd)
}
