// SPDX-License-Identifier: MIT

// Package autoclose keeps the help forum tidy. Posts tagged solved get a
// title prefix and are archived, and a periodic scan archives solved posts
// that were left open.
package autoclose

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

const solvedPrefix = "[SOLVED] "

// ScanResult records one pass of the solved-post scan, for the status report.
type ScanResult struct {
	At      time.Time
	Scanned int
	Closed  int
}

// Scanner archives solved help posts.
type Scanner struct {
	discord   config.DiscordConfig
	interval  time.Duration
	minAge    time.Duration
	logger    zerolog.Logger
	mu        sync.Mutex
	last      ScanResult
	nextRunAt time.Time
}

func New(discord config.DiscordConfig, cfg config.AutocloseConfig) *Scanner {
	return &Scanner{
		discord:  discord,
		interval: cfg.Interval,
		minAge:   cfg.MinAge,
		logger:   log.WithComponent("autoclose"),
	}
}

// HandleThreadUpdate reacts to tag changes on help posts. Adding a solved
// tag renames and archives the post; removing it reverses that.
func (sc *Scanner) HandleThreadUpdate(s *discordgo.Session, t *discordgo.ThreadUpdate) {
	if t.ParentID != sc.discord.HelpChannelID || t.BeforeUpdate == nil {
		return
	}
	before := tagSet(t.BeforeUpdate.AppliedTags)
	after := tagSet(t.AppliedTags)
	if setsEqual(before, after) {
		return
	}

	tags, err := sc.forumTags(s)
	if err != nil {
		sc.logger.Warn().Err(err).Msg("fetching forum tags failed")
		return
	}

	switch {
	case hasSolvedTag(diff(after, before), tags):
		archived := true
		_, err = s.ChannelEditComplex(t.ID, &discordgo.ChannelEdit{
			Name:     solvedPrefix + t.Name,
			Archived: &archived,
		})
	case hasSolvedTag(diff(before, after), tags):
		archived := false
		_, err = s.ChannelEditComplex(t.ID, &discordgo.ChannelEdit{
			Name:     strings.TrimPrefix(t.Name, solvedPrefix),
			Archived: &archived,
		})
	default:
		return
	}
	if err != nil {
		sc.logger.Error().Err(err).Str(log.FieldChannelID, t.ID).Msg("editing help post failed")
	}
}

// Run scans on the configured interval until ctx is done.
func (sc *Scanner) Run(ctx context.Context, s *discordgo.Session) error {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	for {
		sc.mu.Lock()
		sc.nextRunAt = time.Now().Add(sc.interval)
		sc.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := sc.Scan(s); err != nil {
				sc.logger.Error().Err(err).Msg("solved-post scan failed")
			}
		}
	}
}

// Scan archives every open help post that has been solved for longer than
// the configured minimum age.
func (sc *Scanner) Scan(s *discordgo.Session) error {
	tags, err := sc.forumTags(s)
	if err != nil {
		return err
	}
	threads, err := s.GuildThreadsActive(sc.discord.GuildID)
	if err != nil {
		return fmt.Errorf("list active threads: %w", err)
	}

	result := ScanResult{At: time.Now()}
	for _, post := range threads.Threads {
		if post.ParentID != sc.discord.HelpChannelID {
			continue
		}
		result.Scanned++
		if !shouldClose(post, tags, sc.minAge) {
			continue
		}
		archived := true
		if _, err := s.ChannelEditComplex(post.ID, &discordgo.ChannelEdit{
			Archived: &archived,
		}); err != nil {
			sc.logger.Warn().Err(err).Str(log.FieldChannelID, post.ID).Msg("archiving post failed")
			continue
		}
		result.Closed++
		metrics.PostsAutoclosed.Inc()
	}

	sc.mu.Lock()
	sc.last = result
	sc.mu.Unlock()
	sc.logger.Info().
		Int("scanned", result.Scanned).
		Int("closed", result.Closed).
		Msg("solved-post scan done")
	return nil
}

// LastScan returns the most recent scan result and when the next one runs.
func (sc *Scanner) LastScan() (ScanResult, time.Time) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.last, sc.nextRunAt
}

func (sc *Scanner) forumTags(s *discordgo.Session) ([]discordgo.ForumTag, error) {
	forum, err := s.State.Channel(sc.discord.HelpChannelID)
	if err != nil {
		if forum, err = s.Channel(sc.discord.HelpChannelID); err != nil {
			return nil, fmt.Errorf("fetch help forum: %w", err)
		}
	}
	return forum.AvailableTags, nil
}

// shouldClose reports whether a help post is solved and has seen no activity
// for minAge.
func shouldClose(post *discordgo.Channel, tags []discordgo.ForumTag, minAge time.Duration) bool {
	if !discordx.PostIsSolved(post, tags) {
		return false
	}
	lastID := post.LastMessageID
	if lastID == "" {
		lastID = post.ID
	}
	at, err := discordgo.SnowflakeTimestamp(lastID)
	if err != nil {
		return false
	}
	return time.Since(at) > minAge
}

func hasSolvedTag(tagIDs map[string]struct{}, tags []discordgo.ForumTag) bool {
	for _, tag := range tags {
		if _, ok := tagIDs[tag.ID]; ok && strings.Contains(strings.ToLower(tag.Name), "solved") {
			return true
		}
	}
	return false
}

func tagSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// diff returns the members of a that are not in b.
func diff(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range a {
		if _, ok := b[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
