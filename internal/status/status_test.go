// SPDX-License-Identifier: MIT

package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wisp-term/wispbot/internal/autoclose"
)

type fakeGitHub struct {
	authErr error
	pingErr error
}

func (f fakeGitHub) CheckAuth(context.Context) (string, error) { return "wispbot", f.authErr }
func (f fakeGitHub) Ping(context.Context) (time.Duration, error) {
	return 20 * time.Millisecond, f.pingErr
}

type fakeScans struct {
	last autoclose.ScanResult
	next time.Time
}

func (f fakeScans) LastScan() (autoclose.ScanResult, time.Time) { return f.last, f.next }

func TestMessageBeforeInitialization(t *testing.T) {
	r := NewReporter(fakeGitHub{}, fakeScans{}, "42")
	assert.Contains(t, r.Message(context.Background()), "not finished initializing")
}

func TestMessageRendersReport(t *testing.T) {
	scanAt := time.Now().Add(-30 * time.Minute)
	r := NewReporter(fakeGitHub{}, fakeScans{
		last: autoclose.ScanResult{At: scanAt, Scanned: 12, Closed: 3},
		next: scanAt.Add(time.Hour),
	}, "42")
	r.SetLoggedIn(time.Now().Add(-time.Hour))
	r.SetSitemapRefresh(time.Now().Add(-10 * time.Minute))

	msg := r.Message(context.Background())
	assert.Contains(t, msg, "### Version")
	assert.Contains(t, msg, "### Uptime")
	assert.Contains(t, msg, "### <#42> post scan status")
	assert.Contains(t, msg, "12 scanned, 3 closed")
	assert.Contains(t, msg, "* Auth: ✅")
	assert.Contains(t, msg, "* API: ✅")
	assert.Contains(t, msg, "### Sitemap")
}

func TestMessageFlagsGitHubFailures(t *testing.T) {
	r := NewReporter(fakeGitHub{
		authErr: errors.New("bad credentials"),
		pingErr: errors.New("timeout"),
	}, fakeScans{
		last: autoclose.ScanResult{At: time.Now(), Scanned: 1},
		next: time.Now().Add(time.Hour),
	}, "42")
	r.SetLoggedIn(time.Now())
	r.SetSitemapRefresh(time.Now())

	msg := r.Message(context.Background())
	assert.Contains(t, msg, "* Auth: ❌")
	assert.Contains(t, msg, "* API: ❌")
}
