package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// RodLauncher starts one dedicated Chromium per session. The proxy is a
// process-wide launch flag, so sessions cannot share a browser.
type RodLauncher struct{}

// NewRodLauncher returns a Launcher backed by go-rod.
func NewRodLauncher() *RodLauncher { return &RodLauncher{} }

// Launch implements Launcher.
//
// Setup order matters: stealth JS, identity, viewport, headers and the Fetch
// interception loop must all be installed before the first navigation.
func (r *RodLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := newLauncher(ctx, opts)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL, "proxy", opts.ProxyServer)

	s := &rodSession{launcher: l}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.killLauncher()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	s.browser = b

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if err := s.configure(opts); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// newLauncher binds ctx to the launch only, so canceling it aborts a slow
// Chromium start but not a browser that is already up.
func newLauncher(ctx context.Context, opts LaunchOptions) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox)

	if opts.BrowserBin != "" {
		l = l.Bin(opts.BrowserBin)
	}
	if opts.ProxyServer != "" {
		l = l.Proxy(opts.ProxyServer)
	}
	if opts.NoSandbox {
		l.Set(flags.Flag("disable-setuid-sandbox"))
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-accelerated-2d-canvas"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", opts.Viewport.Width, opts.Viewport.Height))
	}
	return l
}

// rodSession implements Session on top of a single rod page.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	filter    atomic.Pointer[RequestFilter]
	stopFetch context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) configure(opts LaunchOptions) error {
	if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	if opts.Identity != "" {
		if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: opts.Identity,
		}); err != nil {
			return fmt.Errorf("set user agent: %w", err)
		}
	}

	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Viewport.Width,
			Height:            opts.Viewport.Height,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}

	if len(opts.ExtraHeaders) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(opts.ExtraHeaders),
		}).Call(s.page); err != nil {
			slog.Warn("extra headers not applied", "error", err)
		}
	}

	return s.startFetchLoop(opts.ProxyUser, opts.ProxyPass)
}

// startFetchLoop enables the Fetch domain once for both jobs that need it:
// answering proxy auth challenges and applying the request filter. Running
// HijackRequests next to Browser.HandleAuth would enable Fetch twice.
func (s *rodSession) startFetchLoop(user, pass string) error {
	withAuth := user != "" || pass != ""
	if err := (proto.FetchEnable{
		Patterns:           []*proto.FetchRequestPattern{{URLPattern: "*"}},
		HandleAuthRequests: withAuth,
	}).Call(s.page); err != nil {
		return fmt.Errorf("enable request interception: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopFetch = cancel
	p := s.page.Context(ctx)

	// Each answer is a CDP round-trip; one goroutine per event keeps a slow
	// reply from stalling every other request of the page.
	wait := p.EachEvent(
		func(e *proto.FetchRequestPaused) {
			go s.answerPaused(p, e)
		},
		func(e *proto.FetchAuthRequired) {
			go answerAuth(p, e, user, pass)
		},
	)
	// wait blocks until ctx is canceled in Close.
	go wait()
	return nil
}

// answerPaused fails a paused request the filter blocks and continues the rest.
func (s *rodSession) answerPaused(c proto.Client, e *proto.FetchRequestPaused) {
	if f := s.filter.Load(); f != nil && (*f)(NormalizeResourceType(string(e.ResourceType))) {
		if err := (proto.FetchFailRequest{
			RequestID:   e.RequestID,
			ErrorReason: proto.NetworkErrorReasonBlockedByClient,
		}).Call(c); err != nil {
			slog.Debug("fail request", "type", e.ResourceType, "error", err)
		}
		return
	}
	if err := (proto.FetchContinueRequest{RequestID: e.RequestID}).Call(c); err != nil {
		slog.Debug("continue request", "type", e.ResourceType, "error", err)
	}
}

func answerAuth(c proto.Client, e *proto.FetchAuthRequired, user, pass string) {
	err := proto.FetchContinueWithAuth{
		RequestID: e.RequestID,
		AuthChallengeResponse: &proto.FetchAuthChallengeResponse{
			Response: proto.FetchAuthChallengeResponseResponseProvideCredentials,
			Username: user,
			Password: pass,
		},
	}.Call(c)
	if err != nil {
		slog.Warn("proxy auth answer failed", "error", err)
	}
}

// SetRequestFilter implements Session.
func (s *rodSession) SetRequestFilter(filter RequestFilter) error {
	if filter == nil {
		s.filter.Store(nil)
		return nil
	}
	s.filter.Store(&filter)
	return nil
}

// Navigate implements Session.
func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return nil, err
	}
	if err := p.WaitLoad(); err != nil {
		return nil, err
	}

	// Read the status from the navigation timing entry; listening for
	// Network events would conflict with the Fetch interception loop.
	status := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`); err == nil {
		status = res.Value.Int()
	}

	return &Response{
		Status: status,
		OK:     status == 0 || (status >= 200 && status < 300),
	}, nil
}

// WaitForSelector implements Session.
func (s *rodSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := s.page.Context(waitCtx).Element(selector)
	return err == nil
}

// Evaluate implements Session.
func (s *rodSession) Evaluate(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	res, err := s.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// Title implements Session.
func (s *rodSession) Title(ctx context.Context) (string, error) {
	v, err := s.Evaluate(ctx, `() => document.title`)
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

// Content implements Session.
func (s *rodSession) Content(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// Close implements Session. It uses the original page and browser references
// (without any request context) so cleanup succeeds after a deadline.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.stopFetch != nil {
			s.stopFetch()
		}
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		s.killLauncher()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func (s *rodSession) killLauncher() {
	if s.launcher == nil {
		return
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
