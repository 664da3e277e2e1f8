// Package browser defines the controlled browser session the scraper drives
// and a go-rod backed implementation of it.
package browser

import (
	"context"
	"strings"
	"time"

	"github.com/ysmood/gson"
)

// ResourceType is a lowercase network resource type such as "document",
// "script", "xhr", "image", "stylesheet", "font" or "media".
type ResourceType string

// Resource types the scraper cares about.
const (
	ResourceDocument   ResourceType = "document"
	ResourceScript     ResourceType = "script"
	ResourceXHR        ResourceType = "xhr"
	ResourceFetch      ResourceType = "fetch"
	ResourceImage      ResourceType = "image"
	ResourceStylesheet ResourceType = "stylesheet"
	ResourceFont       ResourceType = "font"
	ResourceMedia      ResourceType = "media"
)

// NormalizeResourceType maps "Image", " IMAGE " etc. to ResourceImage.
func NormalizeResourceType(s string) ResourceType {
	return ResourceType(strings.ToLower(strings.TrimSpace(s)))
}

// RequestFilter decides per request whether the load is aborted.
type RequestFilter func(ResourceType) bool

// Response is the outcome of a top-level navigation. Status is 0 when the
// browser could not report it.
type Response struct {
	Status int
	OK     bool
}

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// LaunchOptions configures one session.
type LaunchOptions struct {
	ProxyServer string
	ProxyUser   string
	ProxyPass   string

	// Identity is the user agent string presented by the session.
	Identity string

	Viewport Viewport

	// ExtraHeaders are sent with every request of the session.
	ExtraHeaders map[string]string

	Headless   bool
	NoSandbox  bool
	BrowserBin string
}

// Session is one controlled page-loading context. A session performs one
// logical navigation and must be closed by its owner.
type Session interface {
	// Navigate loads url and waits for the load event, bounded by timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) (*Response, error)

	// WaitForSelector reports whether selector appeared within timeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool

	// Evaluate runs a JS function in the page and returns its JSON value.
	Evaluate(ctx context.Context, js string, args ...any) (gson.JSON, error)

	Title(ctx context.Context) (string, error)

	// Content returns the full rendered markup.
	Content(ctx context.Context) (string, error)

	// SetRequestFilter installs filter for every subsequent request.
	SetRequestFilter(filter RequestFilter) error

	// Close releases the session. Calling it more than once is a no-op.
	Close() error
}

// Launcher opens new sessions.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}
