package browser

import (
	"context"
	"sync"
	"testing"

	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingClient captures CDP calls instead of sending them.
type recordingClient struct {
	mu     sync.Mutex
	calls  []string
	params []any
}

func (c *recordingClient) Call(_ context.Context, _, method string, params any) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, method)
	c.params = append(c.params, params)
	return nil, nil
}

func TestAnswerPaused(t *testing.T) {
	s := &rodSession{}
	require.NoError(t, s.SetRequestFilter(func(rt ResourceType) bool { return rt == ResourceImage }))

	c := &recordingClient{}
	s.answerPaused(c, &proto.FetchRequestPaused{RequestID: "1", ResourceType: proto.NetworkResourceTypeImage})
	s.answerPaused(c, &proto.FetchRequestPaused{RequestID: "2", ResourceType: proto.NetworkResourceTypeDocument})

	assert.Equal(t, []string{"Fetch.failRequest", "Fetch.continueRequest"}, c.calls)
	fail, ok := c.params[0].(proto.FetchFailRequest)
	require.True(t, ok)
	assert.Equal(t, proto.FetchRequestID("1"), fail.RequestID)
	assert.Equal(t, proto.NetworkErrorReasonBlockedByClient, fail.ErrorReason)
}

func TestAnswerPaused_NoFilterContinues(t *testing.T) {
	s := &rodSession{}
	require.NoError(t, s.SetRequestFilter(nil))

	c := &recordingClient{}
	s.answerPaused(c, &proto.FetchRequestPaused{RequestID: "1", ResourceType: proto.NetworkResourceTypeImage})
	assert.Equal(t, []string{"Fetch.continueRequest"}, c.calls)
}

func TestAnswerAuth(t *testing.T) {
	c := &recordingClient{}
	answerAuth(c, &proto.FetchAuthRequired{RequestID: "7"}, "alice", "s3cret")

	require.Equal(t, []string{"Fetch.continueWithAuth"}, c.calls)
	got, ok := c.params[0].(proto.FetchContinueWithAuth)
	require.True(t, ok)
	assert.Equal(t, proto.FetchRequestID("7"), got.RequestID)
	assert.Equal(t, proto.FetchAuthChallengeResponseResponseProvideCredentials, got.AuthChallengeResponse.Response)
	assert.Equal(t, "alice", got.AuthChallengeResponse.Username)
	assert.Equal(t, "s3cret", got.AuthChallengeResponse.Password)
}

func TestNewLauncherFlags(t *testing.T) {
	l := newLauncher(context.Background(), LaunchOptions{
		Headless:    true,
		NoSandbox:   true,
		ProxyServer: "http://proxy.example.com:8080",
		Viewport:    Viewport{Width: 1920, Height: 1080},
	})

	assert.Equal(t, "http://proxy.example.com:8080", l.Get(flags.ProxyServer))
	assert.True(t, l.Has(flags.Headless))
	assert.True(t, l.Has(flags.NoSandbox))
	assert.True(t, l.Has(flags.Flag("disable-setuid-sandbox")))
	assert.Equal(t, "AutomationControlled", l.Get(flags.Flag("disable-blink-features")))
	assert.False(t, l.Has(flags.Flag("enable-automation")))
	assert.Equal(t, "1920,1080", l.Get(flags.Flag("window-size")))
}

func TestRodLauncher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess, err := NewRodLauncher().Launch(ctx, LaunchOptions{Headless: true})
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeResourceType(t *testing.T) {
	assert.Equal(t, ResourceImage, NormalizeResourceType(" Image "))
	assert.Equal(t, ResourceStylesheet, NormalizeResourceType("STYLESHEET"))
}

func TestToHeadersMap(t *testing.T) {
	m := toHeadersMap(map[string]string{"Accept-Language": "en-US"})
	require.Contains(t, m, "Accept-Language")
	assert.Equal(t, "en-US", m["Accept-Language"].Str())
}
