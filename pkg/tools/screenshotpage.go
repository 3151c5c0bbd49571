package tools

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
)

// ScreenshotPageArgs is the input schema for screenshot_page.
type ScreenshotPageArgs struct {
	URL        string `json:"url" jsonschema:"description=The URL of the page to render and screenshot"`
	FullPage   bool   `json:"fullPage,omitempty" jsonschema:"description=Capture the full scrollable page rather than just the viewport"`
	WaitMillis int    `json:"waitMillis,omitempty" jsonschema:"description=Milliseconds to wait after load before capturing, for pages with client-side rendering"`
}

var (
	pwOnce sync.Once
	pw     *playwright.Playwright
	pwErr  error
)

// getPlaywright lazily installs and starts the driver once per process.
// Every screenshot_page call shares that driver but launches and closes
// its own Chromium browser.
func getPlaywright() (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			pwErr = fmt.Errorf("installing playwright browsers: %w", err)
			return
		}
		pw, pwErr = playwright.Run()
	})
	return pw, pwErr
}

// ScreenshotPage renders a page in a headless browser and returns a PNG
// screenshot, for pages whose content only appears after client-side
// JavaScript runs (the goquery/html-to-markdown tools only ever see the
// server-rendered HTML).
func ScreenshotPage() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name: "screenshot_page",
		Description: "Renders url in a headless browser and returns a PNG screenshot. Use this for " +
			"pages that render their content with JavaScript, where fetch_page or html_to_markdown " +
			"would only see an empty shell.",
	}, handleScreenshotPage)
	if err != nil {
		logger.Fatal("building screenshot_page tool:", err)
	}
	return tool, handler
}

func handleScreenshotPage(ctx *server.ToolContext, args ScreenshotPageArgs) (toolkit.Image, error) {
	if args.URL == "" {
		return toolkit.Image{}, fmt.Errorf("no url was passed")
	}

	instance, err := getPlaywright()
	if err != nil {
		return toolkit.Image{}, err
	}

	browser, err := instance.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return toolkit.Image{}, fmt.Errorf("launching browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return toolkit.Image{}, fmt.Errorf("opening page: %w", err)
	}

	if _, err := page.Goto(args.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return toolkit.Image{}, fmt.Errorf("navigating to %s: %w", args.URL, err)
	}

	if args.WaitMillis > 0 {
		page.WaitForTimeout(float64(args.WaitMillis))
	}

	data, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(args.FullPage),
	})
	if err != nil {
		return toolkit.Image{}, fmt.Errorf("capturing screenshot: %w", err)
	}

	logger.Info("captured screenshot of", args.URL, len(data), "bytes")
	return toolkit.Image{Data: data, MimeType: "image/png"}, nil
}
