package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/igprobe/models"
)

func main() {
	apiURL := os.Getenv("IGPROBE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}
	apiURL = strings.TrimRight(apiURL, "/")
	apiKey := os.Getenv("IGPROBE_API_KEY")

	s := server.NewMCPServer(
		"igprobe",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeProfileTool := mcp.NewTool("scrape_profile",
		mcp.WithDescription("Fetch a public Instagram profile and return its name, bio, picture URL, follower count and private/verified flags as JSON. Each call loads the page in a fresh proxied browser and can take up to a minute."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("The Instagram username, with or without a leading @"),
		),
	)
	client := &http.Client{Timeout: 180 * time.Second}
	s.AddTool(scrapeProfileTool, handleScrapeProfile(apiURL, apiKey, client))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// handleScrapeProfile calls GET /scrape/{username} on the igprobe API.
// An empty apiKey sends no key.
func handleScrapeProfile(apiURL, apiKey string, client *http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		username, err := request.RequireString("username")
		if err != nil || strings.TrimSpace(username) == "" {
			return mcp.NewToolResultError("username is required"), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
			apiURL+"/scrape/"+url.PathEscape(username), nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		if resp.StatusCode != http.StatusOK {
			var errResp models.ErrorResponse
			if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == "" {
				return mcp.NewToolResultError(fmt.Sprintf("[%d] unexpected response", resp.StatusCode)), nil
			}
			errMsg := fmt.Sprintf("[%d] %s", resp.StatusCode, errResp.Error)
			if errResp.Message != "" {
				errMsg += ": " + errResp.Message
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var rec models.ProfileRecord
		if err := json.Unmarshal(respBody, &rec); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
