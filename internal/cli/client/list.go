package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

type DocumentListItem struct {
	DocumentID  string    `json:"document_id"`
	Filename    string    `json:"filename"`
	TotalChunks int       `json:"total_chunks"`
	TotalPages  int       `json:"total_pages"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type DocumentPage struct {
	Items   []DocumentListItem `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			limit, _ := cmd.Flags().GetInt("limit")
			cursor, _ := cmd.Flags().GetString("cursor")
			return runList(cmd, limit, cursor, outputJSON)
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum documents per page")
	cmd.Flags().String("cursor", "", "Resume listing from a previous page's cursor")
	return cmd
}

func runList(cmd *cobra.Command, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	path := "/documents"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	var page DocumentPage
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(page.Items) == 0 {
		fmt.Println("No documents.")
		return nil
	}

	for _, item := range page.Items {
		fmt.Printf("%s  %-30s  %d pages, %d chunks  %s  %s\n",
			item.DocumentID, item.Filename, item.TotalPages, item.TotalChunks,
			item.Status, item.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if page.HasMore {
		fmt.Printf("\nMore results available. Continue with --cursor %s\n", page.Cursor)
	}

	return nil
}
