package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ContentPayload represents an indexed item as returned by the API.
type ContentPayload struct {
	ContentID    string         `json:"content_id"`
	SourceType   string         `json:"source_type"`
	Content      string         `json:"content"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	HasEmbedding bool           `json:"has_embedding"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <content-id>",
		Short: "Fetch an indexed item by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, contentID string, outputJSON bool) error {
	api := NewAPIClientWithCmd(cmd)

	resp, err := api.Get("/content/" + contentID)
	if err != nil {
		return fmt.Errorf("failed to fetch content: %w", err)
	}

	var payload ContentPayload
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("ID:          %s\n", payload.ContentID)
	fmt.Printf("Source type: %s\n", payload.SourceType)
	fmt.Printf("Embedded:    %t\n", payload.HasEmbedding)
	fmt.Printf("Created:     %s\n", payload.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:     %s\n", payload.UpdatedAt.Format(time.RFC3339))
	if len(payload.Metadata) > 0 {
		meta, _ := json.Marshal(payload.Metadata)
		fmt.Printf("Metadata:    %s\n", meta)
	}
	fmt.Printf("\n%s\n", payload.Content)
	return nil
}
