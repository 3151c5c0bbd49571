package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
	"github.com/richard-senior/mcp/pkg/transport"
)

// GetImageArgs is the input schema for get_image.
type GetImageArgs struct {
	Query    string `json:"query" jsonschema:"description=The search string describing the image to find"`
	Location string `json:"location,omitempty" jsonschema:"description=The file path to save the image to; its extension is replaced to match the image type; defaults to a file named after the query in the present working directory"`
	Size     int    `json:"size,omitempty" jsonschema:"description=The image width of the image to be downloaded, default is 500"`
}

// GetImageResult is what get_image returns.
type GetImageResult struct {
	Location string `json:"location"`
}

// GetImage finds an image matching a query on Wikipedia, falling back to
// a Google web search whose result URL is fetched as an image, and saves
// it to disk.
func GetImage() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name: "get_image",
		Description: "Finds an image matching the given query and downloads it to the given location at " +
			"the given size. Use this when the user asks for an image of something.",
	}, handleGetImage)
	if err != nil {
		logger.Fatal("building get_image tool:", err)
	}
	return tool, handler
}

func handleGetImage(ctx *server.ToolContext, args GetImageArgs) (GetImageResult, error) {
	imageSize := args.Size
	if imageSize <= 0 {
		imageSize = 500
	}

	outputPath := args.Location
	result, err := SaveWikipediaImage(args.Query, imageSize, outputPath)
	if err != nil {
		return GetImageResult{}, err
	}
	return GetImageResult{Location: result}, nil
}

// WikipediaImageSearch searches for an image on Wikipedia and returns the
// image bytes if found, trying a handful of spelling/casing variations
// before falling back to a Google web search and fetching its result URL
// as an image.
func WikipediaImageSearch(query string, imageSize int) ([]byte, string, error) {
	if imageSize <= 0 {
		imageSize = 500
	}
	query = strings.TrimSpace(query)

	variations := []string{
		query,
		strings.ToLower(query),
		strings.ReplaceAll(query, " ", "_"),
		strings.ReplaceAll(query, " ", "-"),
		strings.Title(strings.ToLower(query)),
		strings.ReplaceAll(strings.ToLower(query), " ", "_"),
		strings.ReplaceAll(strings.ToLower(query), " ", "-"),
	}

	uniqueVariations := []string{}
	seen := make(map[string]bool)
	for _, variation := range variations {
		if !seen[variation] {
			seen[variation] = true
			uniqueVariations = append(uniqueVariations, variation)
		}
	}

	for _, searchTerm := range uniqueVariations {
		imageData, contentType, err := tryWikipediaImageSearch(searchTerm, imageSize)
		if err == nil {
			return imageData, contentType, nil
		}
		logger.Info("search failed for variation:", searchTerm, "- trying next variation")
	}

	logger.Info("Wikipedia returned nothing, falling back to google_search")
	results, err := googleSearch(query, 1)
	if err != nil || len(results) == 0 {
		return nil, "", fmt.Errorf("no image found for any variation of query: %s", query)
	}

	for _, r := range results {
		if r.URL == "" {
			continue
		}
		imageData, contentType, err := transport.GetImage(r.URL)
		if err != nil {
			continue
		}
		return imageData, contentType, nil
	}

	return nil, "", fmt.Errorf("no image found for any variation of query: %s", query)
}

// tryWikipediaImageSearch attempts to find an image on Wikipedia for a specific search term
func tryWikipediaImageSearch(query string, imageSize int) ([]byte, string, error) {
	baseURL := "https://en.wikipedia.org/w/api.php"

	params := url.Values{}
	params.Add("action", "query")
	params.Add("titles", query)
	params.Add("prop", "pageimages")
	params.Add("format", "json")
	params.Add("pithumbsize", fmt.Sprintf("%d", imageSize))

	searchURL := fmt.Sprintf("%s?%s", baseURL, params.Encode())

	client, err := transport.GetCustomHTTPClient()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create HTTP client: %w", err)
	}

	req, err := http.NewRequest("GET", searchURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	logger.Info("performing Wikipedia image search for query:", query)
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to Wikipedia API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read Wikipedia API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("wikipedia API returned error status %d: %s", resp.StatusCode, string(body))
	}

	var apiResponse struct {
		Query struct {
			Pages map[string]struct {
				Thumbnail struct {
					Source string `json:"source"`
					Width  int    `json:"width"`
					Height int    `json:"height"`
				} `json:"thumbnail"`
				PageImage string `json:"pageimage"`
				Title     string `json:"title"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, "", fmt.Errorf("failed to parse Wikipedia API response: %w", err)
	}

	var imageURL string
	for _, page := range apiResponse.Query.Pages {
		if page.Thumbnail.Source != "" {
			imageURL = page.Thumbnail.Source
			break
		}
	}
	if imageURL == "" {
		return nil, "", fmt.Errorf("no image found for query: %s", query)
	}

	logger.Info("found image for", query, "at URL:", imageURL)

	imageData, contentType, err := transport.GetImage(imageURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}

	logger.Info("retrieved image for", query, "with size:", len(imageData), "bytes")
	return imageData, contentType, nil
}

// SaveWikipediaImage saves an image from Wikipedia (or its Google Search
// fallback) to disk with the correct file extension and returns the path.
func SaveWikipediaImage(query string, imageSize int, outputPath string) (string, error) {
	query = strings.TrimSpace(query)

	if outputPath == "" {
		sanitizedQuery := strings.ReplaceAll(query, " ", "_")
		sanitizedQuery = regexp.MustCompile(`[^a-zA-Z0-9_-]`).ReplaceAllString(sanitizedQuery, "")
		outputPath = sanitizedQuery + ".jpg"
	} else {
		outputPath = strings.TrimSpace(outputPath)
	}

	imageData, contentType, err := WikipediaImageSearch(query, imageSize)
	if err != nil {
		return "", fmt.Errorf("failed to get image: %w", err)
	}

	extension := "jpg"
	switch {
	case strings.Contains(contentType, "png"):
		extension = "png"
	case strings.Contains(contentType, "gif"):
		extension = "gif"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		extension = "jpg"
	case strings.Contains(contentType, "webp"):
		extension = "webp"
	case strings.Contains(contentType, "svg"):
		extension = "svg"
	}

	if !strings.Contains(filepath.Base(outputPath), ".") {
		outputPath = outputPath + "." + extension
	} else {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "." + extension
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to write image to disk: %w", err)
	}

	logger.Info("image saved to", outputPath)
	return outputPath, nil
}
