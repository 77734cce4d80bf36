package upload

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/pkg/apiclient"
)

var (
	finishSHA256   string
	finishTotalLen uint64
)

var finishCmd = &cobra.Command{
	Use:   "finish SESSION_ID",
	Short: "Commit a session into a memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		resp, err := client.FinishUpload(args[0], apiclient.FinishUploadRequest{
			ExpectedSHA256: finishSHA256,
			TotalLen:       finishTotalLen,
		})
		if err != nil {
			return err
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, resp, "memory '"+resp.MemoryID+"' committed")
	},
}

func init() {
	finishCmd.Flags().StringVar(&finishSHA256, "sha256", "", "Expected SHA-256 of the assembled upload")
	finishCmd.Flags().Uint64Var(&finishTotalLen, "total-len", 0, "Total length in bytes")
	_ = finishCmd.MarkFlagRequired("sha256")
	_ = finishCmd.MarkFlagRequired("total-len")
}
