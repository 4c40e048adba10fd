package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// IndexRequest represents the single-item indexing API request.
type IndexRequest struct {
	Content    string         `json:"content"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ContentID  string         `json:"content_id,omitempty"`
	SourceID   string         `json:"source_id,omitempty"`
	SourceData map[string]any `json:"source_data,omitempty"`
}

// IndexResponse represents the indexing API response.
type IndexResponse struct {
	Success   bool   `json:"success"`
	ContentID string `json:"content_id,omitempty"`
}

// BulkIndexRequest represents the bulk indexing API request.
type BulkIndexRequest struct {
	Items []IndexRequest `json:"items"`
}

// BulkIndexResponse represents the bulk indexing API response.
type BulkIndexResponse struct {
	Success      bool `json:"success"`
	TotalItems   int  `json:"total_items"`
	IndexedCount int  `json:"indexed_count"`
}

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var (
		sourceType string
		contentID  string
		sourceID   string
		metadata   []string
	)

	cmd := &cobra.Command{
		Use:   "index <content>",
		Short: "Index a piece of content",
		Long:  "Indexes a piece of text so it becomes searchable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIndex(cmd, args[0], sourceType, contentID, sourceID, metadata, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&sourceType, "source-type", "s", "teams", "Source type of the content")
	cmd.Flags().StringVar(&contentID, "content-id", "", "Stable content ID (generated when omitted)")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "Source-native identifier, e.g. a conversation ID")
	cmd.Flags().StringArrayVarP(&metadata, "metadata", "m", nil, "Metadata as key=value (repeatable)")

	return cmd
}

func runIndex(cmd *cobra.Command, content, sourceType, contentID, sourceID string, metadata []string, outputJSON bool) error {
	metaPairs, err := parseKeyValues(metadata)
	if err != nil {
		return err
	}
	var meta map[string]any
	if len(metaPairs) > 0 {
		meta = make(map[string]any, len(metaPairs))
		for k, v := range metaPairs {
			meta[k] = v
		}
	}

	api := NewAPIClientWithCmd(cmd)

	req := IndexRequest{
		Content:    content,
		SourceType: sourceType,
		Metadata:   meta,
		ContentID:  contentID,
		SourceID:   sourceID,
	}

	resp, err := api.Post("/content", req)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	var indexResp IndexResponse
	if err := json.Unmarshal(resp.Data, &indexResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(indexResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Indexed content %s\n", indexResp.ContentID)
	return nil
}

// BulkCmd creates the bulk command.
func BulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk <file>",
		Short: "Index a batch of items from a JSON file",
		Long: `Indexes a batch of items atomically from a JSON file.

The file holds an array of items:
  [{"content": "...", "source_type": "teams", "source_id": "conv-1"}, ...]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runBulk(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runBulk(cmd *cobra.Command, path string, outputJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []IndexRequest
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	api := NewAPIClientWithCmd(cmd)

	resp, err := api.Post("/content/bulk", BulkIndexRequest{Items: items})
	if err != nil {
		return fmt.Errorf("bulk indexing failed: %w", err)
	}

	var bulkResp BulkIndexResponse
	if err := json.Unmarshal(resp.Data, &bulkResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(bulkResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Indexed %d of %d items\n", bulkResp.IndexedCount, bulkResp.TotalItems)
	return nil
}
