package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query      string            `json:"query"`
	SearchType string            `json:"search_type,omitempty"`
	SourceType string            `json:"source_type,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Offset     int               `json:"offset,omitempty"`
}

// SearchResult represents one scored hit.
type SearchResult struct {
	ContentID  string         `json:"content_id"`
	Content    string         `json:"content"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Score      float64        `json:"score"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Query        string         `json:"query"`
	SearchType   string         `json:"search_type"`
	TotalResults int            `json:"total_results"`
	Offset       int            `json:"offset"`
	Limit        int            `json:"limit"`
	Results      []SearchResult `json:"results"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		searchType string
		sourceType string
		filters    []string
		limit      int
		offset     int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed content",
		Long:  "Searches indexed content using hybrid, semantic or fulltext retrieval.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], searchType, sourceType, filters, limit, offset, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&searchType, "type", "t", "", "Search type: hybrid, semantic or fulltext")
	cmd.Flags().StringVarP(&sourceType, "source-type", "s", "", "Filter by source type")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Metadata filter as key=value (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

func runSearch(cmd *cobra.Command, query, searchType, sourceType string, filters []string, limit, offset int, outputJSON bool) error {
	filterMap, err := parseKeyValues(filters)
	if err != nil {
		return err
	}

	api := NewAPIClientWithCmd(cmd)

	req := SearchRequest{
		Query:      query,
		SearchType: searchType,
		SourceType: sourceType,
		Filters:    filterMap,
		Limit:      limit,
		Offset:     offset,
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results (%s search):\n\n", searchResp.TotalResults, searchResp.SearchType)
	for i, result := range searchResp.Results {
		fmt.Printf("%d. [%s] %.4f\n", searchResp.Offset+i+1, result.SourceType, result.Score)
		content := result.Content
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		fmt.Printf("   %s\n", content)
		fmt.Printf("   ID: %s\n", result.ContentID)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}
	return nil
}

// parseKeyValues parses repeated key=value flags into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", pair)
		}
		m[key] = value
	}
	return m, nil
}
