package memory

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/pkg/apiclient"
)

var (
	updateTitle       string
	updateDescription string
	updateTags        string
)

var updateCmd = &cobra.Command{
	Use:   "update MEMORY_ID",
	Short: "Update a memory's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := apiclient.UpdateMemoryRequest{}
		if cmd.Flags().Changed("title") {
			req.Title = &updateTitle
		}
		if cmd.Flags().Changed("description") {
			req.Description = &updateDescription
		}
		if cmd.Flags().Changed("tags") {
			req.Tags = cmdutil.ParseCommaSeparatedList(updateTags)
		}

		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		mem, err := client.UpdateMemory(args[0], req)
		if err != nil {
			return err
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, mem, "memory '"+args[0]+"' updated")
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "New description")
	updateCmd.Flags().StringVar(&updateTags, "tags", "", "New comma-separated tags")
}
