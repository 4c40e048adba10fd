package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// DeleteResponse represents the delete API response.
type DeleteResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deleted_count"`
}

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	var (
		contentID  string
		sourceType string
		sourceID   string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete indexed content",
		Long:  "Deletes one item by content ID, or every item of a source type, optionally scoped to one source ID.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runDelete(cmd, contentID, sourceType, sourceID, yes, outputJSON)
		},
	}

	cmd.Flags().StringVar(&contentID, "content-id", "", "Content ID to delete")
	cmd.Flags().StringVarP(&sourceType, "source-type", "s", "", "Delete every item of this source type")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "Only delete items linked to this source ID")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt for source type deletes")

	return cmd
}

func runDelete(cmd *cobra.Command, contentID, sourceType, sourceID string, yes, outputJSON bool) error {
	if contentID == "" && sourceType == "" {
		return fmt.Errorf("either --content-id or --source-type is required")
	}

	if contentID == "" && !yes {
		fmt.Printf("Delete ALL content with source type %q? [y/N]: ", sourceType)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	api := NewAPIClientWithCmd(cmd)

	query := url.Values{}
	if contentID != "" {
		query.Set("content_id", contentID)
	} else {
		query.Set("source_type", sourceType)
		if sourceID != "" {
			query.Set("source_id", sourceID)
		}
	}

	resp, err := api.Delete("/content?" + query.Encode())
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	var deleteResp DeleteResponse
	if err := json.Unmarshal(resp.Data, &deleteResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(deleteResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Deleted %d item(s)\n", deleteResp.DeletedCount)
	return nil
}
