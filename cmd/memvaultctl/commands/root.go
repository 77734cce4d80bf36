// Package commands implements the CLI commands for memvaultctl.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	capsulecmd "github.com/memvault/memvault/cmd/memvaultctl/commands/capsule"
	ctxcmd "github.com/memvault/memvault/cmd/memvaultctl/commands/context"
	memorycmd "github.com/memvault/memvault/cmd/memvaultctl/commands/memory"
	sharecmd "github.com/memvault/memvault/cmd/memvaultctl/commands/share"
	uploadcmd "github.com/memvault/memvault/cmd/memvaultctl/commands/upload"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "memvaultctl",
	Short: "memvault control - remote management client",
	Long: `memvaultctl is the command-line client for a memvaultd server.

Use this tool to manage capsules, memories, chunked uploads, and shares
through the memvault REST API.

Use "memvaultctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Principal, _ = cmd.Flags().GetString("principal")
		cmdutil.Flags.Opaque, _ = cmd.Flags().GetString("opaque")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Server URL (overrides stored context)")
	rootCmd.PersistentFlags().String("principal", "", "Hex-encoded principal to assert (overrides stored context)")
	rootCmd.PersistentFlags().String("opaque", "", "Opaque caller reference to assert (overrides stored context)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ctxcmd.Cmd)
	rootCmd.AddCommand(capsulecmd.Cmd)
	rootCmd.AddCommand(memorycmd.Cmd)
	rootCmd.AddCommand(uploadcmd.Cmd)
	rootCmd.AddCommand(sharecmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
