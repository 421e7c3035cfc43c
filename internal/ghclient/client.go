// SPDX-License-Identifier: MIT

// Package ghclient wraps the GitHub REST and GraphQL APIs behind the
// caches the message scanners read from.
package ghclient

import (
	"context"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/wisp-term/wispbot/internal/cache"
	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

// Client talks to GitHub with client-side rate limiting and exposes
// TTR caches over the lookups the scanners perform.
type Client struct {
	rest    *github.Client
	graphql *githubv4.Client
	org     string
	logger  zerolog.Logger

	// Entities resolves refs to the unified entity model.
	Entities *cache.TTR[Ref, *Entity]
	// Owners maps a bare repo name to its most plausible owner.
	Owners *cache.TTR[string, string]
	// Contents fetches raw file contents for code links.
	Contents *cache.TTR[ContentKey, string]
	// Comments resolves permalink fragments to timeline items.
	Comments *cache.TTR[CommentKey, *Comment]
}

type limitTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// New builds a Client from the GitHub config and cache store.
func New(cfg config.GitHubConfig, ttr config.CacheConfig, store cache.Store) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	base := oauth2.NewClient(context.Background(), src)
	base.Transport = &limitTransport{
		base: base.Transport,
		// Authenticated REST quota is 5000/h. Stay under it and let
		// the TTR caches absorb bursts.
		limiter: rate.NewLimiter(rate.Limit(1.2), 10),
	}

	c := &Client{
		rest:    github.NewClient(base),
		graphql: githubv4.NewClient(base),
		org:     cfg.Org,
		logger:  log.WithComponent("ghclient"),
	}
	c.Entities = cache.NewTTR("entity", store, ttr.EntityTTR, Ref.String, c.fetchEntity)
	c.Owners = cache.NewTTR("owner", store, ttr.OwnerTTR, func(k string) string { return k }, c.fetchOwner)
	c.Contents = cache.NewTTR("content", store, ttr.ContentTTR, ContentKey.String, c.fetchContent)
	c.Comments = cache.NewTTR("comment", store, ttr.CommentTTR, CommentKey.String, c.fetchComment)
	return c
}

// REST exposes the underlying REST client for one-off lookups.
func (c *Client) REST() *github.Client { return c.rest }

// Org is the GitHub organization the bot serves.
func (c *Client) Org() string { return c.org }

// CheckAuth verifies the token by fetching the authenticated user.
func (c *Client) CheckAuth(ctx context.Context) (string, error) {
	u, _, err := c.rest.Users.Get(ctx, "")
	c.count("users.get", err)
	if err != nil {
		return "", err
	}
	return u.GetLogin(), nil
}

// Ping measures GitHub API latency via the zen endpoint.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, _, err := c.rest.Zen(ctx)
	c.count("zen", err)
	if err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (c *Client) count(endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GitHubRequests.WithLabelValues(endpoint, outcome).Inc()
}

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool {
	if resp, ok := err.(*github.ErrorResponse); ok {
		return resp.Response != nil && resp.Response.StatusCode == http.StatusNotFound
	}
	return false
}
