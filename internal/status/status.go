// SPDX-License-Identifier: MIT

// Package status renders the mod-only DM status report.
package status

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/autoclose"
	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/version"
)

// GitHubChecker is the slice of the GitHub client the report needs.
type GitHubChecker interface {
	CheckAuth(ctx context.Context) (string, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// ScanSource reports the last solved-post scan and when the next one runs.
type ScanSource interface {
	LastScan() (autoclose.ScanResult, time.Time)
}

// Reporter collects runtime facts and renders them for the status DM.
type Reporter struct {
	gh            GitHubChecker
	scanner       ScanSource
	helpChannelID string

	mu             sync.Mutex
	launchedAt     time.Time
	loggedInAt     time.Time
	sitemapRefresh time.Time
}

func NewReporter(gh GitHubChecker, scanner ScanSource, helpChannelID string) *Reporter {
	return &Reporter{
		gh:            gh,
		scanner:       scanner,
		helpChannelID: helpChannelID,
		launchedAt:    time.Now(),
	}
}

// SetLoggedIn records the gateway login time, set from the ready handler.
func (r *Reporter) SetLoggedIn(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggedInAt = t
}

// SetSitemapRefresh records the last docs sitemap refresh.
func (r *Reporter) SetSitemapRefresh(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sitemapRefresh = t
}

// Initialized reports whether every tracked subsystem has run at least once.
func (r *Reporter) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, _ := r.scanner.LastScan()
	return !r.loggedInAt.IsZero() && !r.sitemapRefresh.IsZero() && !last.At.IsZero()
}

// Message renders the full status report.
func (r *Reporter) Message(ctx context.Context) string {
	if !r.Initialized() {
		return "The bot has not finished initializing yet; try again shortly."
	}

	r.mu.Lock()
	launched, loggedIn, sitemap := r.launchedAt, r.loggedInAt, r.sitemapRefresh
	r.mu.Unlock()
	scan, next := r.scanner.LastScan()

	authMark, apiMark := "❌", "❌"
	if _, err := r.gh.CheckAuth(ctx); err == nil {
		authMark = "✅"
	}
	if _, err := r.gh.Ping(ctx); err == nil {
		apiMark = "✅"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Version\n`%s` (commit `%s`)\n", version.Version, version.Commit)
	fmt.Fprintf(&b, "### Uptime\n* Launch time: %s\n* Last login time: %s\n",
		discordx.DynamicTimestamp(launched, "R"), discordx.DynamicTimestamp(loggedIn, "R"))
	fmt.Fprintf(&b, "### %s post scan status\n* Last scan: %d scanned, %d closed (%s)\n* Next scan: %s\n",
		discordx.ChannelMention(r.helpChannelID), scan.Scanned, scan.Closed,
		discordx.DynamicTimestamp(scan.At, "R"), discordx.DynamicTimestamp(next, "R"))
	fmt.Fprintf(&b, "### GitHub status\n* Auth: %s\n* API: %s\n", authMark, apiMark)
	fmt.Fprintf(&b, "### Sitemap\n* Last refresh: %s\n", discordx.DynamicTimestamp(sitemap, "R"))
	return b.String()
}

// Report DMs the status message to a mod. Non-mods are ignored.
func (r *Reporter) Report(ctx context.Context, s *discordgo.Session, m *discordgo.Message, isMod func(*discordgo.Member) bool) {
	if !discordx.IsDM(m) {
		return
	}
	member, err := s.State.Member(s.State.Guilds[0].ID, m.Author.ID)
	if err != nil {
		if member, err = s.GuildMember(s.State.Guilds[0].ID, m.Author.ID); err != nil {
			return
		}
	}
	if isMod == nil || !isMod(member) {
		return
	}
	discordx.TryDM(s, m.Author, r.Message(ctx), false)
}
