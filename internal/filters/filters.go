// SPDX-License-Identifier: MIT

// Package filters deletes off-topic messages in single-purpose channels and
// tells the author why over DM.
package filters

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

const (
	deletionTemplate = "Hey! Your message in %s was deleted because it did not contain %s. " +
		"Make sure to include %s, and respond in threads.\n"
	contentNotice = "Here's the message you tried to send:"
	copyTextHint  = "-# **Hint:** you can get your original message with formatting preserved " +
		`by using the "Copy Text" action in the context menu.`
)

// Filter removes messages from one channel unless Keep accepts them.
type Filter struct {
	ChannelID string
	Keep      func(*discordgo.Message) bool
	// What the message was missing, and what to include next time.
	Missing string
	Include string
}

// Checker runs every configured filter against incoming messages.
type Checker struct {
	filters []Filter
	logger  zerolog.Logger
}

// New builds the checker with the showcase and media channel filters.
func New(cfg config.DiscordConfig) *Checker {
	return &Checker{
		filters: []Filter{
			{
				ChannelID: cfg.ShowcaseChannelID,
				Keep:      func(m *discordgo.Message) bool { return len(m.Attachments) > 0 },
				Missing:   "any attachments",
				Include:   "a screenshot or a video",
			},
			{
				ChannelID: cfg.MediaChannelID,
				Keep:      func(m *discordgo.Message) bool { return discordx.URLRegexp.MatchString(m.Content) },
				Missing:   "a link",
				Include:   "a link",
			},
		},
		logger: log.WithComponent("filters"),
	}
}

// Check deletes m if a filter rejects it and reports whether it did. The
// author gets a DM with the reason and their original content, unless it was
// a system message.
func (c *Checker) Check(s *discordgo.Session, m *discordgo.Message) (bool, error) {
	for _, filter := range c.filters {
		if filter.ChannelID == "" || m.ChannelID != filter.ChannelID || filter.Keep(m) {
			continue
		}

		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			return false, fmt.Errorf("delete filtered message: %w", err)
		}
		metrics.FilterDeletions.WithLabelValues(filter.ChannelID).Inc()
		c.logger.Info().
			Str(log.FieldChannelID, m.ChannelID).
			Str(log.FieldMessageID, m.ID).
			Msg("deleted filtered message")

		// System messages (thread starters and the like) have no author
		// to notify.
		if m.Type != discordgo.MessageTypeDefault && m.Type != discordgo.MessageTypeReply {
			return true, nil
		}

		notification := fmt.Sprintf(deletionTemplate,
			discordx.ChannelMention(m.ChannelID), filter.Missing, filter.Include)
		if m.Content != "" {
			notification += contentNotice
		}
		discordx.TryDM(s, m.Author, notification, m.Content != "")

		if m.Content != "" {
			content, file := discordx.FormatOrFile(m.Content, "{}")
			discordx.TryDMFile(s, m.Author, content, file, false)
			discordx.TryDM(s, m.Author, copyTextHint, true)
		}
		return true, nil
	}
	return false, nil
}
