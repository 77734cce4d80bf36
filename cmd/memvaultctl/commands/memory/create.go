package memory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/pkg/apiclient"
)

var (
	createMemoryType  string
	createTitle       string
	createDescription string
	createTags        string
	createIdempotency string
)

var createCmd = &cobra.Command{
	Use:   "create CAPSULE_ID FILE",
	Short: "Create a memory from a local file (inline upload)",
	Long: `Create a memory from a local file, uploaded inline in a single request.

For files too large to send in one request, use 'memvaultctl upload' to
drive the chunked upload session flow instead.

Examples:
  memvaultctl memory create cap_123 ./photo.jpg --type image`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		capsuleID, path := args[0], args[1]

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if createIdempotency == "" {
			return fmt.Errorf("--idempotency-key is required")
		}

		var title *string
		if createTitle != "" {
			title = &createTitle
		} else {
			base := filepath.Base(path)
			title = &base
		}
		var description *string
		if createDescription != "" {
			description = &createDescription
		}

		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		mem, err := client.CreateMemory(capsuleID, apiclient.CreateMemoryRequest{
			InlineBytes: data,
			Metadata: apiclient.MemoryMetadata{
				MemoryType:  createMemoryType,
				Title:       title,
				Description: description,
				ContentType: contentTypeFor(path),
				Tags:        cmdutil.ParseCommaSeparatedList(createTags),
			},
			IdempotencyKey: createIdempotency,
		})
		if err != nil {
			return err
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, mem, "memory '"+mem.ID+"' created")
	},
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func init() {
	createCmd.Flags().StringVar(&createMemoryType, "type", "note", "Memory type (image|video|audio|document|note)")
	createCmd.Flags().StringVar(&createTitle, "title", "", "Memory title (defaults to the file name)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Memory description")
	createCmd.Flags().StringVar(&createTags, "tags", "", "Comma-separated tags")
	createCmd.Flags().StringVar(&createIdempotency, "idempotency-key", "", "Idempotency key for this creation")
}
