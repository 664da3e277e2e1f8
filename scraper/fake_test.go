package scraper

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/igprobe/browser"
	"github.com/use-agent/igprobe/config"
	"github.com/ysmood/gson"
)

// fakeSession is a scripted browser.Session.
type fakeSession struct {
	resp      *browser.Response
	navErr    error
	waitOK    bool
	title     string
	content   string
	bodyText  string
	evalErr   error
	filterErr error
	// blockNav makes Navigate wait for ctx like a page that never loads.
	blockNav bool

	mu        sync.Mutex
	navigated []string
	filter    browser.RequestFilter
	closes    atomic.Int32
}

func okSession(content string) *fakeSession {
	return &fakeSession{
		resp:    &browser.Response{Status: 200, OK: true},
		waitOK:  true,
		title:   "Profile",
		content: content,
	}
}

func (f *fakeSession) Navigate(ctx context.Context, url string, _ time.Duration) (*browser.Response, error) {
	f.mu.Lock()
	f.navigated = append(f.navigated, url)
	f.mu.Unlock()
	if f.blockNav {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.navErr != nil {
		return nil, f.navErr
	}
	return f.resp, nil
}

func (f *fakeSession) WaitForSelector(context.Context, string, time.Duration) bool { return f.waitOK }

func (f *fakeSession) Evaluate(context.Context, string, ...any) (gson.JSON, error) {
	if f.evalErr != nil {
		return gson.New(nil), f.evalErr
	}
	return gson.New(f.bodyText), nil
}

func (f *fakeSession) Title(context.Context) (string, error) { return f.title, nil }

func (f *fakeSession) Content(context.Context) (string, error) { return f.content, nil }

func (f *fakeSession) SetRequestFilter(filter browser.RequestFilter) error {
	if f.filterErr != nil {
		return f.filterErr
	}
	f.mu.Lock()
	f.filter = filter
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) Close() error {
	f.closes.Add(1)
	return nil
}

// fakeLauncher hands out sessions built by next and records every launch.
type fakeLauncher struct {
	next      func() *fakeSession
	launchErr error

	mu       sync.Mutex
	opts     []browser.LaunchOptions
	sessions []*fakeSession
}

func (l *fakeLauncher) Launch(_ context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opts = append(l.opts, opts)
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	s := l.next()
	l.sessions = append(l.sessions, s)
	return s, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.opts)
}

// fakeTimer records every backoff pause. It fires at once unless onWait is
// set, in which case onWait runs and the pause never ends by itself.
type fakeTimer struct {
	mu     sync.Mutex
	pauses []time.Duration
	onWait func()
}

func (t *fakeTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	t.pauses = append(t.pauses, d)
	t.mu.Unlock()
	if t.onWait != nil {
		t.onWait()
		return make(chan time.Time)
	}
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (t *fakeTimer) recorded() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.pauses...)
}

type fixedIdentity string

func (f fixedIdentity) Next() string { return string(f) }

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		MaxAttempts:          3,
		NavigationTimeout:    time.Second,
		MetadataWait:         time.Millisecond,
		BlockedResourceTypes: []string{"image", "stylesheet", "font", "media"},
		ProfileBaseURL:       "https://www.instagram.com",
	}
}

func testBrowserConfig() config.BrowserConfig {
	return config.BrowserConfig{
		Headless:       true,
		NoSandbox:      true,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-US,en;q=0.9",
	}
}

const nasaSharedData = `<html><head><title>NASA</title>
<script type="text/javascript">window._sharedData = {"entry_data":{"ProfilePage":[{"graphql":{"user":{
"full_name":"NASA","biography":"Explore the universe","profile_pic_url":"https://cdn.example/nasa.jpg",
"profile_pic_url_hd":"https://cdn.example/nasa_hd.jpg","is_private":false,"is_verified":true,
"edge_followed_by":{"count":97000000}}}}]}};</script>
<script type="application/ld+json">{"@type":"ProfilePage","name":"NASA LD","description":"5 Followers"}</script>
</head><body><h2>NASA</h2></body></html>`
