// Package context implements server-context management subcommands for
// memvaultctl.
package context

import (
	"github.com/spf13/cobra"
)

// Cmd is the context subcommand.
var Cmd = &cobra.Command{
	Use:   "context",
	Short: "Manage server contexts",
	Long: `Manage connection contexts for multiple memvaultd servers.

A context names a server URL and the principal or opaque reference
memvaultctl asserts as caller on every request. Contexts let you save
and switch between servers without retyping flags.

Subcommands:
  create        Create or update a context
  list          List all configured contexts
  use           Switch to a different context
  current       Show the current context
  rename        Rename a context
  delete        Delete a context
  set-principal Set the hex-encoded principal for the current context
  set-opaque    Set the opaque reference for the current context
  clear         Clear the caller identity from the current context`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(useCmd)
	Cmd.AddCommand(currentCmd)
	Cmd.AddCommand(renameCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(setPrincipalCmd)
	Cmd.AddCommand(setOpaqueCmd)
	Cmd.AddCommand(clearCmd)
}
