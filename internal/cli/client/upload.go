package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IngestResult mirrors the API's upload response payload.
type IngestResult struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
	TotalPages  int    `json:"total_pages"`
	Status      string `json:"status"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document for indexing",
		Long:  "Uploads a PDF or text file, splits it into chunks and indexes it for chat.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args[0], outputJSON, showProgress)
		},
	}

	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show upload progress")

	return cmd
}

func runUpload(cmd *cobra.Command, filePath string, outputJSON, showProgress bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var onProgress ProgressFunc
	if showProgress {
		onProgress = func(current, total int64) {
			fmt.Printf("\rreading %d/%d bytes", current, total)
		}
	}

	resp, err := api.UploadDocument("/upload", filePath, onProgress)
	if showProgress {
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	var result IngestResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Document ID: %s\n", result.DocumentID)
		fmt.Printf("Filename: %s\n", result.Filename)
		fmt.Printf("Pages: %d\n", result.TotalPages)
		fmt.Printf("Chunks: %d\n", result.TotalChunks)
		fmt.Printf("Status: %s\n", result.Status)
	}

	return nil
}
