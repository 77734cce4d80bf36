// Package memory implements memory management subcommands for
// memvaultctl.
package memory

import (
	"github.com/spf13/cobra"
)

// Cmd is the memory subcommand.
var Cmd = &cobra.Command{
	Use:     "memory",
	Aliases: []string{"memories"},
	Short:   "Manage memories",
	Long: `Manage memories: the individually addressable items a capsule owns.

Subcommands:
  create  Create a memory from a local file (inline upload)
  list    List the memories in a capsule
  get     Read a memory
  update  Update a memory's metadata or access policy
  delete  Delete one memory
  purge   Delete some or all memories in a capsule`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(purgeCmd)
}
