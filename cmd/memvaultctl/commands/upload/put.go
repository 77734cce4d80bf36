package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/pkg/apiclient"
	"github.com/memvault/memvault/pkg/upload"
)

var (
	putMemoryType  string
	putTitle       string
	putContentType string
	putIdempotency string
)

var putCmd = &cobra.Command{
	Use:   "put CAPSULE_ID FILE",
	Short: "Upload a local file end-to-end through the chunked session flow",
	Long: `Upload a local file by driving the full chunked session flow: it opens
a session sized to the file, uploads every chunk in order, then finishes
the session with the file's SHA-256 to commit it into a memory.

Use this instead of 'memvaultctl memory create' for files too large to
send inline in one request.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		capsuleID, path := args[0], args[1]

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if putIdempotency == "" {
			return fmt.Errorf("--idempotency-key is required")
		}

		totalLen := uint64(len(data))
		expectedChunks := computeExpectedChunks(totalLen)

		var title *string
		if putTitle != "" {
			title = &putTitle
		} else {
			base := filepath.Base(path)
			title = &base
		}

		contentType := putContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		begun, err := client.BeginUpload(apiclient.BeginUploadRequest{
			CapsuleID: capsuleID,
			Metadata: apiclient.MemoryMetadata{
				MemoryType:  putMemoryType,
				Title:       title,
				ContentType: contentType,
			},
			ExpectedChunks: expectedChunks,
			TotalLen:       totalLen,
			IdempotencyKey: putIdempotency,
		})
		if err != nil {
			return fmt.Errorf("failed to begin upload: %w", err)
		}

		if begun.ExistingMemoryID != nil {
			return cmdutil.PrintResourceWithSuccess(os.Stdout, begun, "memory '"+*begun.ExistingMemoryID+"' already exists for this idempotency key")
		}

		for i := uint32(0); i < expectedChunks; i++ {
			start := uint64(i) * upload.ChunkSize
			end := start + upload.ChunkSize
			if end > totalLen {
				end = totalLen
			}
			if err := client.PutChunk(begun.SessionID, i, data[start:end]); err != nil {
				return fmt.Errorf("failed to upload chunk %d: %w", i, err)
			}
		}

		sum := sha256.Sum256(data)
		resp, err := client.FinishUpload(begun.SessionID, apiclient.FinishUploadRequest{
			ExpectedSHA256: hex.EncodeToString(sum[:]),
			TotalLen:       totalLen,
		})
		if err != nil {
			return fmt.Errorf("failed to finish upload: %w", err)
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, resp, "memory '"+resp.MemoryID+"' created")
	},
}

// computeExpectedChunks returns the chunk count a totalLen-byte upload
// splits into, with an empty file still occupying one (empty) chunk.
func computeExpectedChunks(totalLen uint64) uint32 {
	n := uint32((totalLen + upload.ChunkSize - 1) / upload.ChunkSize)
	if n == 0 {
		n = 1
	}
	return n
}

func init() {
	putCmd.Flags().StringVar(&putMemoryType, "type", "note", "Memory type (image|video|audio|document|note)")
	putCmd.Flags().StringVar(&putTitle, "title", "", "Memory title (defaults to the file name)")
	putCmd.Flags().StringVar(&putContentType, "content-type", "", "MIME content type (defaults to application/octet-stream)")
	putCmd.Flags().StringVar(&putIdempotency, "idempotency-key", "", "Idempotency key for this upload")
}
