// SPDX-License-Identifier: MIT

package mentions

import (
	"fmt"
	"strings"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/ghclient"
)

// emojiNames are the custom guild emojis used as entity state markers.
var emojiNames = []string{
	"discussion_answered",
	"issue_closed_completed",
	"issue_closed_unplanned",
	"issue_draft",
	"issue_open",
	"pull_closed",
	"pull_draft",
	"pull_merged",
	"pull_open",
}

// entityEmojiName picks the state marker for an entity.
func entityEmojiName(e *ghclient.Entity) string {
	switch e.Kind {
	case ghclient.KindIssue:
		if !e.Closed {
			return "issue_open"
		}
		if e.StateReason == "completed" {
			return "issue_closed_completed"
		}
		return "issue_closed_unplanned"
	case ghclient.KindPull:
		switch {
		case e.Draft:
			return "pull_draft"
		case e.Merged:
			return "pull_merged"
		case e.Closed:
			return "pull_closed"
		default:
			return "pull_open"
		}
	case ghclient.KindDiscussion:
		if e.AnsweredBy != nil {
			return "discussion_answered"
		}
		return "issue_draft"
	}
	return ""
}

// EmojiFor returns the loaded guild emoji marking an entity's state, or ""
// when it was not found at startup.
func (s *Scanner) EmojiFor(e *ghclient.Entity) string {
	return s.emojis[entityEmojiName(e)]
}

func formatUserLink(login string) string {
	return fmt.Sprintf("[`%s`](<https://github.com/%s>)", login, login)
}

// formatEntityDetail renders the kind-specific subtext line: labels for
// issues, diff stats for PRs, the answerer for discussions.
func formatEntityDetail(e *ghclient.Entity) string {
	var body string
	switch e.Kind {
	case ghclient.KindIssue:
		if len(e.Labels) == 0 {
			return ""
		}
		labels := e.Labels
		var omission string
		if len(labels) > 3 {
			omission = fmt.Sprintf(", and %d more", len(labels)-3)
			labels = labels[:3]
		}
		quoted := make([]string, len(labels))
		for i, l := range labels {
			quoted[i] = "`" + l + "`"
		}
		body = "labels: " + strings.Join(quoted, ", ") + omission
	case ghclient.KindPull:
		if e.Additions == 0 && e.Deletions == 0 && e.ChangedFiles == 0 {
			return "" // Diff size unavailable.
		}
		body = fmt.Sprintf(
			"diff size: `+%d` `-%d` (%d files changed)",
			e.Additions, e.Deletions, e.ChangedFiles,
		)
	case ghclient.KindDiscussion:
		if e.AnsweredBy == nil {
			return ""
		}
		body = "answered by " + formatUserLink(e.AnsweredBy.Login)
	}
	return "-# " + body + "\n"
}

// formatMention renders one entity as a headline plus subtext lines.
func (s *Scanner) formatMention(e *ghclient.Entity) string {
	headline := fmt.Sprintf(
		"**%s [#%d](<%s>):** %s",
		e.Kind, e.Ref.Number, e.HTMLURL, discordx.EscapeSpecial(e.Title),
	)

	// Prefer the canonical casing from the HTML URL over what the user
	// typed.
	domain, owner, name := "https://github.com", e.Ref.Owner, e.Ref.Repo
	if segs := strings.Split(e.HTMLURL, "/"); len(segs) >= 5 {
		domain = strings.Join(segs[:3], "/")
		owner, name = segs[3], segs[4]
	}
	subtext := fmt.Sprintf(
		"-# by %s in [`%s/%s`](<%s/%s/%s>) on %s (%s)\n",
		formatUserLink(e.User.Login),
		owner, name, domain, owner, name,
		discordx.DynamicTimestamp(e.CreatedAt, "D"),
		discordx.DynamicTimestamp(e.CreatedAt, "R"),
	)

	emoji := s.emojis[entityEmojiName(e)]
	if emoji == "" {
		emoji = "❓"
	}
	return fmt.Sprintf("%s %s\n%s%s", emoji, headline, subtext, formatEntityDetail(e))
}
