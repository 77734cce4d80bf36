package upload

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/pkg/apiclient"
)

var (
	beginMemoryType  string
	beginTitle       string
	beginContentType string
	beginChunks      uint32
	beginTotalLen    uint64
	beginIdempotency string
)

var beginCmd = &cobra.Command{
	Use:   "begin CAPSULE_ID",
	Short: "Open a new upload session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var title *string
		if beginTitle != "" {
			title = &beginTitle
		}

		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		resp, err := client.BeginUpload(apiclient.BeginUploadRequest{
			CapsuleID: args[0],
			Metadata: apiclient.MemoryMetadata{
				MemoryType:  beginMemoryType,
				Title:       title,
				ContentType: beginContentType,
			},
			ExpectedChunks: beginChunks,
			TotalLen:       beginTotalLen,
			IdempotencyKey: beginIdempotency,
		})
		if err != nil {
			return err
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, resp, "upload session '"+resp.SessionID+"' opened")
	},
}

func init() {
	beginCmd.Flags().StringVar(&beginMemoryType, "type", "note", "Memory type (image|video|audio|document|note)")
	beginCmd.Flags().StringVar(&beginTitle, "title", "", "Memory title")
	beginCmd.Flags().StringVar(&beginContentType, "content-type", "application/octet-stream", "MIME content type")
	beginCmd.Flags().Uint32Var(&beginChunks, "chunks", 0, "Expected chunk count")
	beginCmd.Flags().Uint64Var(&beginTotalLen, "total-len", 0, "Total length in bytes")
	beginCmd.Flags().StringVar(&beginIdempotency, "idempotency-key", "", "Idempotency key for this session")
	_ = beginCmd.MarkFlagRequired("chunks")
	_ = beginCmd.MarkFlagRequired("total-len")
	_ = beginCmd.MarkFlagRequired("idempotency-key")
}
