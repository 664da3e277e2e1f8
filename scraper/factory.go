package scraper

import (
	"context"
	"log/slog"

	"github.com/use-agent/igprobe/browser"
	"github.com/use-agent/igprobe/config"
	"github.com/use-agent/igprobe/models"
	"github.com/use-agent/igprobe/proxy"
)

// IdentitySource hands out the user agent for a new session.
type IdentitySource interface {
	Next() string
}

// SessionFactory produces fully configured sessions: proxied, with a rotated
// identity and heavy resources blocked. The caller owns the returned session.
type SessionFactory struct {
	proxy      proxy.Provider
	identities IdentitySource
	launcher   browser.Launcher
	browserCfg config.BrowserConfig
	filter     browser.RequestFilter
}

// NewSessionFactory wires the factory. blocked lists the resource types
// aborted in every session.
func NewSessionFactory(
	p proxy.Provider,
	ids IdentitySource,
	l browser.Launcher,
	browserCfg config.BrowserConfig,
	blocked []string,
) *SessionFactory {
	return &SessionFactory{
		proxy:      p,
		identities: ids,
		launcher:   l,
		browserCfg: browserCfg,
		filter:     ShouldBlock(blocked),
	}
}

// ShouldBlock builds a RequestFilter that aborts the listed resource types
// and lets everything else through.
func ShouldBlock(blocked []string) browser.RequestFilter {
	set := make(map[browser.ResourceType]struct{}, len(blocked))
	for _, name := range blocked {
		set[browser.NormalizeResourceType(name)] = struct{}{}
	}
	return func(rt browser.ResourceType) bool {
		_, ok := set[rt]
		return ok
	}
}

// Create resolves the proxy, picks an identity and launches a session.
// A proxy config error is returned as is, before anything is launched.
func (f *SessionFactory) Create(ctx context.Context) (browser.Session, error) {
	pc, err := f.proxy.Resolve()
	if err != nil {
		return nil, err
	}

	ua := f.identities.Next()
	opts := browser.LaunchOptions{
		ProxyServer: pc.ServerURI,
		ProxyUser:   pc.User,
		ProxyPass:   pc.Pass,
		Identity:    ua,
		Viewport: browser.Viewport{
			Width:  f.browserCfg.ViewportWidth,
			Height: f.browserCfg.ViewportHeight,
		},
		Headless:   f.browserCfg.Headless,
		NoSandbox:  f.browserCfg.NoSandbox,
		BrowserBin: f.browserCfg.BrowserBin,
	}
	if f.browserCfg.AcceptLanguage != "" {
		opts.ExtraHeaders = map[string]string{"Accept-Language": f.browserCfg.AcceptLanguage}
	}

	sess, err := f.launcher.Launch(ctx, opts)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeBrowserCrash, "failed to launch browser")
	}

	if err := sess.SetRequestFilter(f.filter); err != nil {
		if cerr := sess.Close(); cerr != nil {
			slog.Warn("session close failed", "error", cerr)
		}
		return nil, categorizeError(err, models.ErrCodeBrowserCrash, "failed to install request filter")
	}

	slog.Debug("session created", "proxy", pc.ServerURI, "identity", ua)
	return sess, nil
}
