package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
	"github.com/richard-senior/mcp/pkg/transport"
)

// SearchResult is a single Google Custom Search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// GoogleSearchArgs is the input schema for google_search.
type GoogleSearchArgs struct {
	Query string `json:"query" jsonschema:"description=The search string to be entered into google search"`
	Num   int    `json:"num,omitempty" jsonschema:"description=The number of results to return (1-10, default 5)"`
}

// GoogleSearchResult is what google_search returns.
type GoogleSearchResult struct {
	Results []SearchResult `json:"results"`
	Query   string         `json:"query"`
	Count   int            `json:"count"`
}

// GoogleSearch adapts the Google Custom Search API into an MCP tool.
func GoogleSearch() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name:        "google_search",
		Description: "Performs a google search for the given text and returns the top 'num' responses",
	}, handleGoogleSearch)
	if err != nil {
		logger.Fatal("building google_search tool:", err)
	}
	return tool, handler
}

func handleGoogleSearch(ctx *server.ToolContext, args GoogleSearchArgs) (GoogleSearchResult, error) {
	numResults := args.Num
	if numResults <= 0 || numResults > 10 {
		numResults = 5
	}

	results, err := googleSearch(args.Query, numResults)
	if err != nil {
		return GoogleSearchResult{}, err
	}

	return GoogleSearchResult{Results: results, Query: args.Query, Count: len(results)}, nil
}

// googleSearch performs a Google search using the Custom Search API and
// returns the top results. The API key and search engine ID are read
// from the environment rather than hard-coded, since they're per-deployer
// secrets, not part of this module.
func googleSearch(query string, numResults int) ([]SearchResult, error) {
	searchKey := os.Getenv("GOOGLE_SEARCH_API_KEY")
	searchEngineID := os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	if searchKey == "" || searchEngineID == "" {
		return nil, fmt.Errorf("google_search: GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_ENGINE_ID must be set")
	}

	baseURL := "https://www.googleapis.com/customsearch/v1"

	params := url.Values{}
	params.Add("q", query)
	params.Add("key", searchKey)
	params.Add("cx", searchEngineID)
	params.Add("num", fmt.Sprintf("%d", numResults))

	searchURL := fmt.Sprintf("%s?%s", baseURL, params.Encode())

	client, err := transport.GetCustomHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	req, err := http.NewRequest("GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	logger.Info("performing Google Custom Search for query", query)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to search API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned error status %d: %s", resp.StatusCode, string(body))
	}

	var searchResponse struct {
		Items []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Snippet     string `json:"snippet"`
			DisplayLink string `json:"displayLink"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	var results []SearchResult
	for _, item := range searchResponse.Items {
		results = append(results, SearchResult{
			Title:       item.Title,
			URL:         item.Link,
			Description: item.Snippet,
		})
	}

	return results, nil
}
