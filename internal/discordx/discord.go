// SPDX-License-Identifier: MIT

package discordx

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/log"
)

// NoMentions disables every kind of ping on a sent message.
var NoMentions = &discordgo.MessageAllowedMentions{}

// IsDM reports whether a message arrived outside a guild.
func IsDM(m *discordgo.Message) bool {
	return m.GuildID == ""
}

// TryDM sends a direct message, logging instead of failing when the user has
// DMs closed or is a bot. silent suppresses the push notification.
func TryDM(s *discordgo.Session, user *discordgo.User, content string, silent bool) {
	TryDMFile(s, user, content, nil, silent)
}

// TryDMFile is TryDM with an optional file attachment.
func TryDMFile(s *discordgo.Session, user *discordgo.User, content string, file *discordgo.File, silent bool) {
	logger := log.WithComponent("discordx")
	if user.Bot {
		logger.Warn().
			Str(log.FieldUserID, user.ID).
			Msg("attempted to DM a bot")
		return
	}
	channel, err := s.UserChannelCreate(user.ID)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to open DM channel")
		return
	}
	send := &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: NoMentions,
	}
	if file != nil {
		send.Files = []*discordgo.File{file}
	}
	if silent {
		send.Flags = discordgo.MessageFlagsSuppressNotifications
	}
	if _, err := s.ChannelMessageSendComplex(channel.ID, send); err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldUserID, user.ID).
			Str("content", Truncate(content, 50)).
			Msg("failed to DM user")
	}
}

// PostHasTag reports whether a forum post carries a tag whose name contains
// substring (case-insensitive). tags are the parent forum's available tags.
func PostHasTag(post *discordgo.Channel, tags []discordgo.ForumTag, substring string) bool {
	names := make(map[string]string, len(tags))
	for _, tag := range tags {
		names[tag.ID] = strings.ToLower(tag.Name)
	}
	for _, id := range post.AppliedTags {
		if strings.Contains(names[id], substring) {
			return true
		}
	}
	return false
}

// PostIsSolved reports whether a help post is in any terminal state.
func PostIsSolved(post *discordgo.Channel, tags []discordgo.ForumTag) bool {
	for _, s := range []string{"solved", "moved to github", "duplicate", "stale"} {
		if PostHasTag(post, tags, s) {
			return true
		}
	}
	return false
}

// FormatOrFile fills message into template, falling back to attaching the
// message as a file when the result would not fit in a single Discord
// message.
func FormatOrFile(message, template string) (string, *discordgo.File) {
	full := strings.Replace(template, "{}", message, 1)
	if len(full) > 2000 {
		file := &discordgo.File{
			Name:   "content.md",
			Reader: bytes.NewReader([]byte(message)),
		}
		return strings.Replace(template, "{}", "", 1), file
	}
	return full, nil
}

// PrettyAccount renders a user for log output.
func PrettyAccount(u *discordgo.User) string {
	return fmt.Sprintf("<%s - %s>", u.Username, u.ID)
}

// AutocompleteChoice pairs a display name with a submitted value.
type AutocompleteChoice struct {
	Name  string
	Value string
}

// GenerateAutocomplete filters choices by the current input and returns at
// most 25 sorted options, the most Discord allows.
func GenerateAutocomplete(current string, choices []AutocompleteChoice) []*discordgo.ApplicationCommandOptionChoice {
	current = strings.ToLower(current)
	var matched []AutocompleteChoice
	for _, c := range choices {
		if strings.Contains(strings.ToLower(c.Name), current) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	if len(matched) > 25 {
		matched = matched[:25]
	}
	out := make([]*discordgo.ApplicationCommandOptionChoice, len(matched))
	for i, c := range matched {
		out[i] = &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value}
	}
	return out
}
