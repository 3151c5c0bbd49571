package tools

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
	"github.com/richard-senior/mcp/pkg/transport"
)

// HTMLToMarkdownArgs is the input schema for html_to_markdown.
type HTMLToMarkdownArgs struct {
	URL string `json:"url" jsonschema:"description=The URL of the html to convert to markdown, e.g. https://www.richardsenior.net/"`
}

// HTMLToMarkdownResult is what html_to_markdown returns.
type HTMLToMarkdownResult struct {
	Markdown string `json:"markdown"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Domain   string `json:"domain"`
}

// HTMLToMarkdown fetches a page and converts its body to Markdown, for
// LLM clients that want a precis of a web page rather than raw HTML.
func HTMLToMarkdown() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name: "html_to_markdown",
		Description: "Fetches the HTML at url and converts it to Markdown for LLM consumption. " +
			"Use this for summarizing a web page or digging deeper into a google_search result.",
	}, handleHTMLToMarkdown)
	if err != nil {
		logger.Fatal("building html_to_markdown tool:", err)
	}
	return tool, handler
}

func handleHTMLToMarkdown(ctx *server.ToolContext, args HTMLToMarkdownArgs) (HTMLToMarkdownResult, error) {
	if args.URL == "" {
		return HTMLToMarkdownResult{}, fmt.Errorf("no url was passed")
	}

	body, err := fetchHTML(args.URL)
	if err != nil {
		return HTMLToMarkdownResult{}, err
	}

	domain, err := extractDomain(args.URL)
	if err != nil {
		logger.Warn("failed to extract domain from URL:", err)
		domain = "unknown"
	}

	markdown, err := htmltomarkdown.ConvertString(string(body), converter.WithDomain(domain))
	if err != nil {
		return HTMLToMarkdownResult{}, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	const maxLength = 10000
	if len(markdown) > maxLength {
		markdown = markdown[:maxLength] + "\n\n... (content truncated due to size)"
	}

	return HTMLToMarkdownResult{
		Markdown: markdown,
		URL:      args.URL,
		Title:    extractTitle(string(body)),
		Domain:   domain,
	}, nil
}

func fetchHTML(target string) ([]byte, error) {
	client, err := transport.GetCustomHTTPClient()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("GET", target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	logger.Info("getting html from:", target)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// extractTitle attempts to extract the title from HTML content
func extractTitle(html string) string {
	titleStart := strings.Index(html, "<title>")
	if titleStart == -1 {
		return "No title found"
	}

	titleStart += 7 // Length of "<title>"
	titleEnd := strings.Index(html[titleStart:], "</title>")
	if titleEnd == -1 {
		return "No title found"
	}

	return strings.TrimSpace(html[titleStart : titleStart+titleEnd])
}

// extractDomain extracts the domain portion from a URL string
func extractDomain(urlString string) (string, error) {
	if !strings.HasPrefix(urlString, "http://") && !strings.HasPrefix(urlString, "https://") {
		urlString = "https://" + urlString
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %v", err)
	}

	if strings.HasPrefix(urlString, "http://") {
		return "http://" + parsedURL.Hostname(), nil
	}
	return "https://" + parsedURL.Hostname(), nil
}
