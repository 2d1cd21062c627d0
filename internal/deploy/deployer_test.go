package deploy

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/httpx"
	"token-launchpad/internal/wallet"
)

// fakePlatform is an agent platform plus launchpad trigger endpoint.
type fakePlatform struct {
	mu       sync.Mutex
	paths    []string
	posts    []map[string]string
	failPath map[string]int
	failBody string
}

func (f *fakePlatform) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		code, failing := f.failPath[r.URL.Path]
		f.mu.Unlock()

		if failing {
			w.WriteHeader(code)
			w.Write([]byte(f.failBody))
			return
		}

		switch r.URL.Path {
		case "/agents/register":
			w.Write([]byte(`{"success":true,"agent":{"name":"x","api_key":"generated-key"}}`))
		case "/agents/me/wallet/challenge":
			w.Write([]byte(`{"challenge":"chal-1"}`))
		case "/agents/me/wallet/verify":
			var signed wallet.Signed
			json.NewDecoder(r.Body).Decode(&signed)
			if !wallet.Verify(signed.Address, signed.Message, signed.Signature) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"bad signature"}`))
				return
			}
			w.Write([]byte(`{"ok":true}`))
		case "/posts", "/boards/crypto/threads":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			body["auth"] = r.Header.Get("Authorization")
			f.mu.Lock()
			f.posts = append(f.posts, body)
			f.mu.Unlock()
			w.Write([]byte(`{"post":{"id":"post-42"}}`))
		case "/trigger":
			w.Write([]byte(`{"queued":true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func (f *fakePlatform) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type fakeDescriber struct {
	desc string
	err  error
}

func (f fakeDescriber) Describe(ctx context.Context, url string) (string, error) {
	return f.desc, f.err
}

func newTestDeployer(t *testing.T, fp *fakePlatform, describer Describer) *Deployer {
	t.Helper()
	server := httptest.NewServer(fp.handler(t))
	t.Cleanup(server.Close)

	agents := DefaultAgents()
	for name, a := range agents {
		a.BaseURL = server.URL
		agents[name] = a
	}
	launchpads := DefaultLaunchpads()
	clawnch := launchpads["clawnch"]
	clawnch.TriggerURL = server.URL + "/trigger"
	launchpads["clawnch"] = clawnch

	return New(Options{
		Client:    httpx.New(),
		Registry:  NewRegistry(agents, launchpads),
		Describer: describer,
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
		Logger:    log.New(io.Discard, "", 0),
	})
}

func target(agent, launchpad string) domain.Target {
	return domain.Target{Agent: agent, Launchpad: launchpad, Wallet: "Wallet111", Chain: domain.ChainSolana}
}

func TestDeploy_MoltbookClawnchFullPipeline(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("moltbook", "clawnch"))

	require.True(t, out.Success, out.Message)
	assert.False(t, out.Degraded)
	assert.Equal(t, "post-42", out.PostID)
	assert.Equal(t, "https://www.moltbook.com/post/post-42", out.PostURL)
	assert.Equal(t, []string{"/agents/register", "/posts", "/trigger"}, fp.calls())

	require.NotNil(t, out.Credentials)
	assert.Equal(t, "generated-key", out.Credentials.APIKey)
	assert.True(t, strings.HasPrefix(out.Credentials.AgentHandle, "alphacoin_"))

	require.Len(t, fp.posts, 1)
	assert.Equal(t, "Bearer generated-key", fp.posts[0]["auth"])
	assert.Equal(t, "clawnch", fp.posts[0]["submolt"])
	assert.True(t, strings.HasPrefix(fp.posts[0]["content"], "!clawnch\n"))

	for _, line := range out.Log {
		assert.NotContains(t, line, "generated-key", "credentials must not appear in the log trail")
	}
}

func TestDeploy_SuppliedKeySkipsRegistration(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, nil)

	tg := target("moltbook", "molaunch")
	tg.AgentAPIKey = "user-key"
	out := d.Deploy(context.Background(), testCandidate(), tg)

	require.True(t, out.Success, out.Message)
	assert.Nil(t, out.Credentials)
	assert.Equal(t, []string{"/posts"}, fp.calls(), "polling launchpad needs no trigger")
	assert.Equal(t, "Bearer user-key", fp.posts[0]["auth"])
}

func TestDeploy_RequiresUserKey(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("4claw", "clawnch"))

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "precondition")
	assert.Empty(t, fp.calls(), "no network call on precondition failure")
}

func TestDeploy_UnknownVariants(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("myspace", "clawnch"))
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "unknown agent")

	out = d.Deploy(context.Background(), testCandidate(), target("moltbook", "nowhere"))
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "unknown launchpad")
	assert.Empty(t, fp.calls())
}

func TestDeploy_RegistrationFailureIsFatal(t *testing.T) {
	fp := &fakePlatform{
		failPath: map[string]int{"/agents/register": http.StatusConflict},
		failBody: `{"error":"name already taken"}`,
	}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("moltbook", "clawnch"))

	assert.False(t, out.Success)
	assert.Equal(t, "identity: registration failed: name already taken", out.Message)
	assert.Equal(t, []string{"/agents/register"}, fp.calls())
}

func TestDeploy_WalletLinkOnMoltx(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("moltx", "molaunch"))

	require.True(t, out.Success, out.Message)
	assert.Equal(t, []string{
		"/agents/register", "/agents/me/wallet/challenge", "/agents/me/wallet/verify", "/posts",
	}, fp.calls())
	require.NotNil(t, out.Credentials)
	assert.True(t, wallet.IsValidAddress(out.Credentials.LinkedWallet))
	assert.Contains(t, fp.posts[0]["content"], "```json")
}

func TestDeploy_WalletLinkFailureIsNonFatal(t *testing.T) {
	fp := &fakePlatform{
		failPath: map[string]int{"/agents/me/wallet/challenge": http.StatusInternalServerError},
		failBody: `{"message":"challenge service down"}`,
	}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("moltx", "molaunch"))

	require.True(t, out.Success, out.Message)
	assert.Empty(t, out.Credentials.LinkedWallet)
	assert.Contains(t, strings.Join(out.Log, "\n"), "wallet link: failed, continuing unlinked: challenge service down")
}

func TestDeploy_PublishFailurePropagatesVerbatim(t *testing.T) {
	fp := &fakePlatform{
		failPath: map[string]int{"/posts": http.StatusTooManyRequests},
		failBody: `{"error":"You can only post once every 30 minutes"}`,
	}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("moltbook", "clawnch"))

	assert.False(t, out.Success)
	assert.Equal(t, "publish: You can only post once every 30 minutes", out.Message)
	assert.NotContains(t, fp.calls(), "/trigger")
	require.NotNil(t, out.Credentials, "generated credentials are still surfaced once")
}

func TestDeploy_TriggerFailureIsDegradedSuccess(t *testing.T) {
	fp := &fakePlatform{
		failPath: map[string]int{"/trigger": http.StatusBadGateway},
	}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("moltbook", "clawnch"))

	assert.True(t, out.Success)
	assert.True(t, out.Degraded)
	assert.Contains(t, out.Message, "may still pick it up")
}

func TestDeploy_LogTrailOrder(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, nil)

	out := d.Deploy(context.Background(), testCandidate(), target("moltbook", "clawnch"))
	require.True(t, out.Success)

	prefixes := []string{"deploying", "identity:", "content:", "publish:", "trigger:"}
	require.Len(t, out.Log, len(prefixes))
	for i, p := range prefixes {
		assert.True(t, strings.HasPrefix(out.Log[i], p), "line %d = %q", i, out.Log[i])
	}
}

func TestDeploy_Enrichment(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, fakeDescriber{desc: "From the site."})

	c := testCandidate()
	c.Description = ""
	tg := target("moltbook", "molaunch")
	tg.AgentAPIKey = "k"

	out := d.Deploy(context.Background(), c, tg)
	require.True(t, out.Success)
	assert.Contains(t, fp.posts[0]["content"], "about: From the site.")
}

func TestDeploy_EnrichmentFailureIsNonFatal(t *testing.T) {
	fp := &fakePlatform{}
	d := newTestDeployer(t, fp, fakeDescriber{err: io.ErrUnexpectedEOF})

	c := testCandidate()
	c.Description = ""
	tg := target("moltbook", "molaunch")
	tg.AgentAPIKey = "k"

	out := d.Deploy(context.Background(), c, tg)
	require.True(t, out.Success)
	assert.Contains(t, strings.Join(out.Log, "\n"), "enrichment skipped")
}

func TestStub(t *testing.T) {
	s := NewStub()
	c := testCandidate()
	s.Fail[c.DedupKey()] = "network error"

	out := s.Deploy(context.Background(), c, target("moltbook", "clawnch"))
	assert.False(t, out.Success)

	out = s.Deploy(context.Background(), domain.Candidate{Name: "B", Symbol: "B"}, target("moltbook", "clawnch"))
	assert.True(t, out.Success)
	assert.Len(t, s.Calls(), 2)
}
