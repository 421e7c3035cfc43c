// SPDX-License-Identifier: MIT

package mover

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/discordx"
)

var snowflakeRegexp = regexp.MustCompile(`<(\D{0,2})(\d+)>`)

// Subtext is the "-# " line appended to a moved message. It is the only
// place the original author survives, since the webhook message's author is
// the webhook itself.
type Subtext struct {
	Reactions string
	Timestamp string
	Author    string
	MoveHint  string
	Skipped   string
}

// NewSubtext gathers the footer parts for a message about to be moved.
// executorID may be empty when the move mark should be omitted.
func NewSubtext(m *discordgo.Message, executorID string, skipped int) Subtext {
	var st Subtext

	parts := make([]string, 0, len(m.Reactions))
	for _, reaction := range m.Reactions {
		parts = append(parts, fmt.Sprintf("%s ×%d", formatEmoji(reaction.Emoji), reaction.Count))
	}
	st.Reactions = strings.Join(parts, "   ")

	// Recent messages don't need a timestamp, the move is obvious enough.
	created, err := discordgo.SnowflakeTimestamp(m.ID)
	if err == nil && time.Since(created) > 12*time.Hour {
		st.Timestamp = discordx.DynamicTimestamp(created, "")
		if m.EditedTimestamp != nil {
			st.Timestamp += fmt.Sprintf(" (edited at %s)", discordx.DynamicTimestamp(*m.EditedTimestamp, "t"))
		}
	}

	if m.Author != nil {
		st.Author = "Authored by " + m.Author.Mention()
	}
	if executorID != "" {
		st.MoveHint = fmt.Sprintf("Moved from %s by <@%s>",
			discordx.ChannelMention(m.ChannelID), executorID)
	}
	if skipped > 0 {
		st.Skipped = FormatSkipped(skipped)
	}
	return st
}

// FormatSkipped describes attachments dropped by the size cap.
func FormatSkipped(skipped int) string {
	if skipped == 1 {
		return "Skipped 1 large attachment"
	}
	return fmt.Sprintf("Skipped %d large attachments", skipped)
}

// Format renders the full subtext, one "-# " line per group.
func (st Subtext) Format() string {
	info := st.Author
	if st.Author != "" && st.Timestamp != "" {
		info += " on "
	}
	info += st.Timestamp

	var context []string
	for _, s := range []string{info, st.Skipped, st.MoveHint} {
		if s != "" {
			context = append(context, s)
		}
	}
	return subJoin(st.Reactions, strings.Join(context, " • "))
}

func subJoin(parts ...string) string {
	var lines []string
	for _, p := range parts {
		if p != "" {
			lines = append(lines, "-# "+p)
		}
	}
	return strings.Join(lines, "\n")
}

func formatEmoji(e *discordgo.Emoji) string {
	if e == nil {
		return ""
	}
	if e.ID == "" {
		return e.Name
	}
	return e.MessageFormat()
}

// ExtractAuthorID recovers the original author from a moved message's
// subtext. It returns "" when the message does not look like a moved one.
func ExtractAuthorID(content string) string {
	lines := strings.Split(content, "\n")
	subtext := lines[len(lines)-1]
	if !strings.HasPrefix(subtext, "-# ") {
		return ""
	}

	// A channel mention means a move mark follows; cut it off so the
	// executor is not mistaken for the author.
	if id, pos := findSnowflake(subtext, "#"); id != "" {
		subtext = subtext[:pos]
	}
	id, _ := findSnowflake(subtext, "@")
	return id
}

// findSnowflake returns the first mention of the given sigil and its offset,
// or ("", -1).
func findSnowflake(content, sigil string) (string, int) {
	m := snowflakeRegexp.FindStringSubmatchIndex(content)
	if m == nil || content[m[2]:m[3]] != sigil {
		return "", -1
	}
	return content[m[4]:m[5]], m[0]
}
