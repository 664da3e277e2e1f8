// Package proxy resolves and validates the outbound proxy every browser
// session is routed through.
package proxy

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/use-agent/igprobe/models"
)

// Environment variables read by EnvProvider.
const (
	EnvHost = "PROXY_HOST"
	EnvPort = "PROXY_PORT"
	EnvUser = "PROXY_USER"
	EnvPass = "PROXY_PASS"
)

// Config is a validated proxy configuration. Treat it as read-only.
type Config struct {
	Host string
	Port int
	User string
	Pass string

	// ServerURI is the value for Chromium's --proxy-server flag.
	ServerURI string
}

// Provider resolves the proxy configuration for a new session.
type Provider interface {
	Resolve() (*Config, error)
}

// New validates the four source fields and builds a Config. Any missing field
// or a port that is not a positive integer yields an ErrCodeConfig error.
func New(host, port, user, pass string) (*Config, error) {
	host, port = strings.TrimSpace(host), strings.TrimSpace(port)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{EnvHost, host},
		{EnvPort, port},
		{EnvUser, user},
		{EnvPass, pass},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, models.NewScrapeError(
			models.ErrCodeConfig,
			fmt.Sprintf("proxy configuration missing: set %s", strings.Join(missing, ", ")),
			nil,
		)
	}

	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return nil, models.NewScrapeError(
			models.ErrCodeConfig,
			fmt.Sprintf("invalid %s %q: must be a port number", EnvPort, port),
			err,
		)
	}

	return &Config{
		Host:      host,
		Port:      p,
		User:      user,
		Pass:      pass,
		ServerURI: "http://" + net.JoinHostPort(host, strconv.Itoa(p)),
	}, nil
}

// EnvProvider reads the proxy from the process environment on every Resolve,
// so a fixed environment always yields the same Config.
type EnvProvider struct {
	// Lookup defaults to os.Getenv.
	Lookup func(key string) string
}

// Resolve implements Provider.
func (e EnvProvider) Resolve() (*Config, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.Getenv
	}
	return New(lookup(EnvHost), lookup(EnvPort), lookup(EnvUser), lookup(EnvPass))
}

// Static always returns the same pre-validated Config.
type Static struct{ Config *Config }

// Resolve implements Provider.
func (s Static) Resolve() (*Config, error) {
	if s.Config == nil {
		return nil, models.NewScrapeError(models.ErrCodeConfig, "proxy configuration missing", nil)
	}
	return s.Config, nil
}
