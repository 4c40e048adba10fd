package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// CountResponse represents the count API response.
type CountResponse struct {
	Count      int64  `json:"count"`
	SourceType string `json:"source_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
}

// CountCmd creates the count command.
func CountCmd() *cobra.Command {
	var (
		sourceType string
		sourceID   string
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count indexed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCount(cmd, sourceType, sourceID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&sourceType, "source-type", "s", "", "Count only items of this source type")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "Count only items linked to this source ID")

	return cmd
}

func runCount(cmd *cobra.Command, sourceType, sourceID string, outputJSON bool) error {
	api := NewAPIClientWithCmd(cmd)

	query := url.Values{}
	if sourceType != "" {
		query.Set("source_type", sourceType)
	}
	if sourceID != "" {
		query.Set("source_id", sourceID)
	}
	path := "/content/count"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to count content: %w", err)
	}

	var countResp CountResponse
	if err := json.Unmarshal(resp.Data, &countResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(countResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("%d items\n", countResp.Count)
	return nil
}
