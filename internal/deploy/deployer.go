// Package deploy runs the deployment protocol for one candidate: identity
// acquisition, optional wallet linking, content construction, publish and
// launchpad trigger.
package deploy

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/httpx"
	"token-launchpad/internal/idhash"
	"token-launchpad/internal/wallet"
)

// Default step timeouts.
const (
	DefaultRegisterTimeout  = 15 * time.Second
	DefaultChallengeTimeout = 10 * time.Second
	DefaultVerifyTimeout    = 10 * time.Second
	DefaultPublishTimeout   = 30 * time.Second
	DefaultTriggerTimeout   = 20 * time.Second
	DefaultEnrichTimeout    = 8 * time.Second
)

// Describer produces a description from a website (optional enrichment).
type Describer interface {
	Describe(ctx context.Context, url string) (string, error)
}

// Timeouts bounds each outbound step.
type Timeouts struct {
	Register  time.Duration
	Challenge time.Duration
	Verify    time.Duration
	Publish   time.Duration
	Trigger   time.Duration
	Enrich    time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Register <= 0 {
		t.Register = DefaultRegisterTimeout
	}
	if t.Challenge <= 0 {
		t.Challenge = DefaultChallengeTimeout
	}
	if t.Verify <= 0 {
		t.Verify = DefaultVerifyTimeout
	}
	if t.Publish <= 0 {
		t.Publish = DefaultPublishTimeout
	}
	if t.Trigger <= 0 {
		t.Trigger = DefaultTriggerTimeout
	}
	if t.Enrich <= 0 {
		t.Enrich = DefaultEnrichTimeout
	}
	return t
}

// Deployer executes the deployment protocol over HTTP.
type Deployer struct {
	client    *httpx.Client
	registry  *Registry
	describer Describer
	timeouts  Timeouts
	now       func() time.Time
	logger    *log.Logger
}

// Options for creating Deployer.
type Options struct {
	Client    *httpx.Client
	Registry  *Registry // nil uses the built-in tables
	Describer Describer // nil disables enrichment
	Timeouts  Timeouts
	Now       func() time.Time
	Logger    *log.Logger
}

// New creates a new Deployer.
func New(opts Options) *Deployer {
	d := &Deployer{
		client:    opts.Client,
		registry:  opts.Registry,
		describer: opts.Describer,
		timeouts:  opts.Timeouts.withDefaults(),
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if d.client == nil {
		d.client = httpx.New()
	}
	if d.registry == nil {
		d.registry = NewRegistry(nil, nil)
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.logger == nil {
		d.logger = log.Default()
	}
	return d
}

// Registry returns the variant tables in use.
func (d *Deployer) Registry() *Registry {
	return d.registry
}

// Deploy runs the protocol for one candidate. It never returns nil and
// never panics on upstream failure: every outcome carries its log trail.
func (d *Deployer) Deploy(ctx context.Context, c domain.Candidate, t domain.Target) *domain.DeploymentOutcome {
	out := &domain.DeploymentOutcome{Log: []string{}}

	agent, err := d.registry.Agent(t.Agent)
	if err != nil {
		return fail(out, "precondition", err.Error())
	}
	lp, err := d.registry.Launchpad(t.Launchpad)
	if err != nil {
		return fail(out, "precondition", err.Error())
	}
	out.Logf("deploying %s ($%s) via %s -> %s", c.Name, c.Symbol, agent.Name, lp.Name)

	// 1. identity
	apiKey := t.AgentAPIKey
	var creds *domain.Credentials
	switch {
	case apiKey != "":
		out.Logf("identity: using supplied API key")
	case agent.RequiresUserKey || agent.RegisterPath == "":
		return fail(out, "precondition", fmt.Sprintf("agent %s requires an API key", agent.Name))
	default:
		handle := idhash.AgentHandle(c.Name, d.now())
		key, err := d.register(ctx, agent, handle, c)
		if err != nil {
			return fail(out, "identity", "registration failed: "+httpx.UpstreamMessage(err))
		}
		apiKey = key
		creds = &domain.Credentials{APIKey: key, AgentHandle: handle}
		out.Logf("identity: registered agent %s", handle)
	}

	// 2. wallet link
	if agent.RequiresWalletLink {
		addr, err := d.linkWallet(ctx, agent, apiKey)
		if err != nil {
			out.Logf("wallet link: failed, continuing unlinked: %s", httpx.UpstreamMessage(err))
		} else {
			if creds == nil {
				creds = &domain.Credentials{}
			}
			creds.LinkedWallet = addr
			out.Logf("wallet link: linked %s", addr)
		}
	}
	out.Credentials = creds

	// 3. content
	if c.Description == "" && c.Website != "" && d.describer != nil {
		if desc, err := d.describe(ctx, c.Website); err != nil {
			out.Logf("content: enrichment skipped: %v", err)
		} else {
			c.Description = desc
			out.Logf("content: description taken from website")
		}
	}
	if t.Tax != nil && !lp.SupportsTax {
		out.Logf("content: %s does not accept a tax block, omitted", lp.Name)
	}
	content, err := BuildContent(lp, agent.Format, c, t)
	if err != nil {
		return fail(out, "content", err.Error())
	}
	out.Logf("content: built %s post for %s", agent.Format, lp.Name)

	// 4. publish
	postID, postURL, err := d.publish(ctx, agent, apiKey, content)
	if err != nil {
		return fail(out, "publish", httpx.UpstreamMessage(err))
	}
	out.PostID = postID
	out.PostURL = postURL
	out.Logf("publish: posted %s", postID)

	// 5. trigger
	out.Success = true
	if lp.TriggerURL == "" {
		out.Logf("trigger: %s scans its feed, no trigger needed", lp.Name)
		out.Message = fmt.Sprintf("posted $%s to %s for %s", c.Symbol, agent.Name, lp.Name)
		return out
	}
	if err := d.trigger(ctx, lp, agent, postID, postURL); err != nil {
		out.Degraded = true
		out.Logf("trigger: failed: %s", httpx.UpstreamMessage(err))
		out.Message = fmt.Sprintf("posted $%s but %s trigger failed; the launchpad may still pick it up", c.Symbol, lp.Name)
		return out
	}
	out.Logf("trigger: %s accepted post %s", lp.Name, postID)
	out.Message = fmt.Sprintf("launched $%s via %s on %s", c.Symbol, agent.Name, lp.Name)
	return out
}

func fail(out *domain.DeploymentOutcome, step, msg string) *domain.DeploymentOutcome {
	out.Success = false
	out.Message = step + ": " + msg
	out.Logf("%s", out.Message)
	return out
}

func (d *Deployer) register(ctx context.Context, agent AgentVariant, handle string, c domain.Candidate) (string, error) {
	body := map[string]string{
		"name":        handle,
		"description": fmt.Sprintf("Launch agent for %s ($%s)", c.Name, c.Symbol),
	}
	var resp map[string]interface{}
	if err := d.client.PostJSON(ctx, agent.BaseURL+agent.RegisterPath, nil, body, &resp, d.timeouts.Register); err != nil {
		return "", err
	}
	key := lookupString(resp, "api_key", "agent.api_key", "data.api_key", "apiKey")
	if key == "" {
		return "", fmt.Errorf("registration response has no api key")
	}
	return key, nil
}

func (d *Deployer) linkWallet(ctx context.Context, agent AgentVariant, apiKey string) (string, error) {
	kp, err := wallet.NewKeypair()
	if err != nil {
		return "", err
	}
	auth := bearer(apiKey)

	var ch map[string]interface{}
	err = d.client.PostJSON(ctx, agent.BaseURL+agent.ChallengePath, auth,
		map[string]string{"address": kp.Address(), "chain": "solana"}, &ch, d.timeouts.Challenge)
	if err != nil {
		return "", fmt.Errorf("challenge: %w", err)
	}
	challenge := lookupString(ch, "challenge", "nonce", "data.challenge", "data.nonce")
	if challenge == "" {
		return "", fmt.Errorf("challenge response has no challenge")
	}

	signed, err := wallet.SignChallenge(kp, hostOf(agent.BaseURL), challenge, d.now())
	if err != nil {
		return "", err
	}
	err = d.client.PostJSON(ctx, agent.BaseURL+agent.VerifyPath, auth, signed, nil, d.timeouts.Verify)
	if err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}
	return kp.Address(), nil
}

func (d *Deployer) describe(ctx context.Context, site string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeouts.Enrich)
	defer cancel()
	return d.describer.Describe(ctx, site)
}

func (d *Deployer) publish(ctx context.Context, agent AgentVariant, apiKey string, content Content) (string, string, error) {
	body := map[string]string{
		"title":   content.Title,
		"content": content.Body,
	}
	if agent.CommunityField != "" {
		body[agent.CommunityField] = agent.Community
	}

	var resp map[string]interface{}
	if err := d.client.PostJSON(ctx, agent.BaseURL+agent.PostPath, bearer(apiKey), body, &resp, d.timeouts.Publish); err != nil {
		return "", "", err
	}
	id := lookupString(resp, "post.id", "id", "data.id", "thread.id")
	if id == "" {
		return "", "", fmt.Errorf("publish response has no post id")
	}
	postURL := lookupString(resp, "post.url", "url", "data.url")
	if postURL == "" && agent.PostURLFormat != "" {
		postURL = fmt.Sprintf(agent.PostURLFormat, id)
	}
	return id, postURL, nil
}

func (d *Deployer) trigger(ctx context.Context, lp LaunchpadVariant, agent AgentVariant, postID, postURL string) error {
	body := map[string]string{
		"post_id":  postID,
		"post_url": postURL,
		"source":   agent.Name,
	}
	return d.client.PostJSON(ctx, lp.TriggerURL, nil, body, nil, d.timeouts.Trigger)
}

func bearer(key string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + key}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// lookupString returns the first non-empty string (or number) found at any
// of the dotted paths.
func lookupString(m map[string]interface{}, paths ...string) string {
	for _, p := range paths {
		var cur interface{} = m
		for _, part := range strings.Split(p, ".") {
			obj, ok := cur.(map[string]interface{})
			if !ok {
				cur = nil
				break
			}
			cur = obj[part]
		}
		switch v := cur.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
