// SPDX-License-Identifier: MIT

// Package discordx holds Discord plumbing shared by the message handlers:
// text escaping, DM helpers, forum tag checks, and send-time utilities.
package discordx

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// URLRegexp loosely matches http(s) URLs in message content.
	URLRegexp = regexp.MustCompile(
		`https?://(?:www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b` +
			`(?:[-a-zA-Z0-9()@:%_+.~#?&/=]*)`,
	)

	mentionRegexp     = regexp.MustCompile(`@(everyone|here|[!&]?[0-9]{17,20})`)
	inviteLinkRegexp  = regexp.MustCompile(`\b(?:https?://)?(discord\.gg/\S+)\b`)
	orderedListRegexp = regexp.MustCompile(`^(\d+)\. (.*)`)

	markdownEscaper = strings.NewReplacer(
		`\`, `\\`,
		"`", "\\`",
		`*`, `\*`,
		`_`, `\_`,
		`~`, `\~`,
		`|`, `\|`,
	)
)

// SupportedImageFormats are the file extensions Discord renders inline,
// including the leading dot.
var SupportedImageFormats = map[string]bool{
	".avif": true,
	".gif":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

// EscapeSpecial escapes everything Discord considers special: mentions,
// markdown, angle brackets, invite links (turned into suppressed links), and
// ordered lists. Senders should still suppress embeds and mentions on the
// message itself.
func EscapeSpecial(content string) string {
	escaped := mentionRegexp.ReplaceAllString(content, "@​$1")
	escaped = markdownEscaper.Replace(escaped)
	escaped = strings.ReplaceAll(escaped, "<", `\<`)
	escaped = strings.ReplaceAll(escaped, ">", `\>`)
	// Invite links are not embeds, the suppress flag does not cover them.
	escaped = inviteLinkRegexp.ReplaceAllString(escaped, "<https://$1>")
	lines := strings.Split(escaped, "\n")
	for i, line := range lines {
		lines[i] = orderedListRegexp.ReplaceAllString(line, `$1\. $2`)
	}
	return strings.Join(lines, "\n")
}

// DynamicTimestamp renders a Discord dynamic timestamp. fmt is one of
// Discord's style letters ("R", "F", "t", ...) or empty for the default.
func DynamicTimestamp(t time.Time, format string) string {
	if format != "" {
		format = ":" + format
	}
	return fmt.Sprintf("<t:%d%s>", t.Unix(), format)
}

// Truncate shortens s to at most length runes, ending in an ellipsis.
func Truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length-1]) + "…"
}

// FormatDiffNote renders a pull request's diff stats, or "" when the API did
// not supply them.
func FormatDiffNote(additions, deletions, changedFiles int) string {
	if changedFiles == 0 || (additions == 0 && deletions == 0) {
		return ""
	}
	return fmt.Sprintf(
		"diff size: `+%d` `-%d` (%d files changed)",
		additions, deletions, changedFiles,
	)
}

// MessageLink builds a jump URL for a guild message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// ChannelMention renders a clickable channel reference.
func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}
