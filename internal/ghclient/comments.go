// SPDX-License-Identifier: MIT

package ghclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/zigcode"
)

// Embed colors for review states and timeline events.
const (
	ColorApproved         = 0x2ECC71
	ColorChangesRequested = 0xE74C3C
	ColorEvent            = 0x3498DB
)

var stateColors = map[string]int{
	"APPROVED":          ColorApproved,
	"CHANGES_REQUESTED": ColorChangesRequested,
}

// ErrUnsupportedComment is returned for permalink fragments the bot cannot
// resolve through the API.
var ErrUnsupportedComment = errors.New("unsupported comment fragment")

// SupportedCommentPrefix reports whether a permalink fragment prefix can be
// resolved. Use it to pre-filter before hitting the comment cache.
func SupportedCommentPrefix(prefix string) bool {
	switch prefix {
	case "issuecomment-", "pullrequestreview-", "discussion_r",
		"discussioncomment-", "event-", "issue-", "discussion-":
		return true
	}
	return false
}

// fetchComment resolves a permalink fragment to a timeline item.
func (c *Client) fetchComment(ctx context.Context, key CommentKey) (*Comment, error) {
	switch key.Prefix {
	case "issuecomment-":
		return c.issueComment(ctx, key)
	case "pullrequestreview-":
		return c.pullReview(ctx, key)
	case "discussion_r":
		return c.reviewComment(ctx, key)
	case "discussioncomment-":
		return c.discussionComment(ctx, key.Ref, key.ID)
	case "event-":
		return c.issueEvent(ctx, key)
	case "issue-", "discussion-":
		return c.entityStarter(ctx, key)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedComment, key.Prefix)
}

func (c *Client) issueComment(ctx context.Context, key CommentKey) (*Comment, error) {
	comment, _, err := c.rest.Issues.GetComment(ctx, key.Ref.Owner, key.Ref.Repo, int64(key.ID))
	c.count("issues.get_comment", err)
	if err != nil {
		return nil, err
	}
	entity, err := c.Entities.Get(ctx, key.Ref)
	if err != nil {
		return nil, err
	}
	return &Comment{
		Author:    restUser(comment.User),
		Body:      comment.GetBody(),
		Reactions: restReactions(comment.Reactions),
		Entity:    entity,
		CreatedAt: comment.GetCreatedAt().Time,
		HTMLURL:   comment.GetHTMLURL(),
	}, nil
}

func (c *Client) pullReview(ctx context.Context, key CommentKey) (*Comment, error) {
	review, _, err := c.rest.PullRequests.GetReview(ctx, key.Ref.Owner, key.Ref.Repo, key.Ref.Number, int64(key.ID))
	c.count("pulls.get_review", err)
	if err != nil {
		return nil, err
	}
	entity, err := c.Entities.Get(ctx, key.Ref)
	if err != nil {
		return nil, err
	}
	// The API does not include reactions for PR reviews even when the UI
	// shows some.
	return &Comment{
		Author:    restUser(review.User),
		Body:      review.GetBody(),
		Entity:    entity,
		CreatedAt: review.GetSubmittedAt().Time,
		HTMLURL:   review.GetHTMLURL(),
		Kind:      "Review",
		Color:     stateColors[review.GetState()],
	}, nil
}

func (c *Client) reviewComment(ctx context.Context, key CommentKey) (*Comment, error) {
	comment, _, err := c.rest.PullRequests.GetComment(ctx, key.Ref.Owner, key.Ref.Repo, int64(key.ID))
	c.count("pulls.get_comment", err)
	if err != nil {
		return nil, err
	}
	entity, err := c.Entities.Get(ctx, key.Ref)
	if err != nil {
		return nil, err
	}
	return &Comment{
		Author:    restUser(comment.User),
		Body:      prettifySuggestions(comment),
		Reactions: restReactions(comment.Reactions),
		Entity:    entity,
		CreatedAt: comment.GetCreatedAt().Time,
		HTMLURL:   comment.GetHTMLURL(),
		Kind:      "Review comment",
	}, nil
}

func (c *Client) entityStarter(ctx context.Context, key CommentKey) (*Comment, error) {
	entity, err := c.Entities.Get(ctx, key.Ref)
	if err != nil {
		return nil, err
	}
	return &Comment{
		Author:    entity.User,
		Body:      entity.Body,
		Reactions: entity.Reactions,
		Entity:    entity,
		CreatedAt: entity.CreatedAt,
		HTMLURL:   entity.HTMLURL,
	}, nil
}

// prettifySuggestions rewrites ```suggestion blocks in a review comment into
// ```diff blocks against the commented hunk, which Discord can render.
func prettifySuggestions(comment *github.PullRequestComment) string {
	body := comment.GetBody()
	var suggestions []zigcode.CodeBlock
	for _, cb := range zigcode.ExtractCodeBlocks(body) {
		if cb.Lang == "suggestion" {
			suggestions = append(suggestions, cb)
		}
	}
	if len(suggestions) == 0 {
		return body
	}

	end := comment.GetOriginalLine()
	start := comment.GetOriginalStartLine()
	if start == 0 {
		start = end
	}
	hunkSize := end - start + 1
	hunkLines := strings.Split(comment.GetDiffHunk(), "\n")
	if hunkSize > len(hunkLines) {
		hunkSize = len(hunkLines)
	}
	deleted := make([]string, 0, hunkSize)
	for _, line := range hunkLines[len(hunkLines)-hunkSize:] {
		if strings.HasPrefix(line, "+") {
			line = "-" + line[1:]
		}
		deleted = append(deleted, line)
	}
	hunkAsDeleted := strings.Join(deleted, "\n")

	for _, sug := range suggestions {
		sugBody := strings.ReplaceAll(sug.Body, "\r\n", "\n")
		sugBody = strings.TrimRight(sugBody, "\n")
		var added []string
		for _, line := range strings.Split(sugBody, "\n") {
			added = append(added, "+"+line)
		}
		diff := hunkAsDeleted + "\n" + strings.Join(added, "\n")
		body = strings.Replace(body, sug.Raw, crlfCodeBlock("diff", diff), 1)
	}
	return body
}

// crlfCodeBlock builds a fenced block with CRLF line endings, which is what
// GitHub serves comment bodies with.
func crlfCodeBlock(lang, body string) string {
	block := fmt.Sprintf("```%s\n%s\n```", lang, body)
	return strings.ReplaceAll(block, "\n", "\r\n")
}

// entityUpdateEvents render as "<Event>ed this <kind>".
var entityUpdateEvents = map[string]bool{
	"closed":      true,
	"locked":      true,
	"merged":      true,
	"reopened":    true,
	"unlocked":    true,
	"pinned":      true,
	"unpinned":    true,
	"transferred": true,
}

// eventBodies covers the timeline events resolvable through the issue events
// API. Events absent here render as unsupported rather than erroring, since
// GitHub keeps growing the set.
var eventBodies = map[string]func(ev *github.IssueEvent) string{
	"assigned":    func(ev *github.IssueEvent) string { return fmt.Sprintf("Assigned `%s`", ev.Assignee.GetLogin()) },
	"unassigned":  func(ev *github.IssueEvent) string { return fmt.Sprintf("Unassigned `%s`", ev.Assignee.GetLogin()) },
	"labeled":     func(ev *github.IssueEvent) string { return fmt.Sprintf("Added the `%s` label", ev.Label.GetName()) },
	"unlabeled":   func(ev *github.IssueEvent) string { return fmt.Sprintf("Removed the `%s` label", ev.Label.GetName()) },
	"milestoned":  func(ev *github.IssueEvent) string { return fmt.Sprintf("Added this to the `%s` milestone", ev.Milestone.GetTitle()) },
	"demilestoned": func(ev *github.IssueEvent) string {
		return fmt.Sprintf("Removed this from the `%s` milestone", ev.Milestone.GetTitle())
	},
	"issue_type_added":    plainEvent("Added an issue type"),
	"issue_type_changed":  plainEvent("Changed the issue type"),
	"issue_type_removed":  plainEvent("Removed the issue type"),
	"converted_from_draft": plainEvent("Converted this from a draft issue"),
	"convert_to_draft":     plainEvent("Marked this pull request as draft"),
	"ready_for_review":     plainEvent("Marked this pull request as ready for review"),
	"copilot_work_started": plainEvent("Started a Copilot review"),
	"auto_merge_enabled":   plainEvent("Enabled auto-merge"),
	"auto_squash_enabled":  plainEvent("Enabled auto-merge (squash)"),
	"auto_merge_disabled":  plainEvent("Disabled auto-merge"),
	"head_ref_deleted":     plainEvent("Deleted the head branch"),
	"head_ref_restored":    plainEvent("Restored the head branch"),
	"head_ref_force_pushed": func(ev *github.IssueEvent) string {
		return "Force-pushed the head branch to " + formatCommitID(ev, false)
	},
	"referenced": func(ev *github.IssueEvent) string {
		return "Referenced this issue in commit " + formatCommitID(ev, true)
	},
	"renamed": func(ev *github.IssueEvent) string {
		return fmt.Sprintf(
			"Changed the title ~~%s~~ %s",
			discordx.EscapeSpecial(ev.Rename.GetFrom()),
			discordx.EscapeSpecial(ev.Rename.GetTo()),
		)
	},
	"base_ref_changed":                 plainEvent("Changed the base branch"),
	"automatic_base_change_succeeded":  plainEvent("Base automatically changed"),
	"automatic_base_change_failed":     plainEvent("Automatic base change failed"),
	"converted_to_discussion":          plainEvent("Converted this issue to a discussion"),
	"parent_issue_added":               plainEvent("Added a parent issue"),
	"parent_issue_removed":             plainEvent("Removed a parent issue"),
	"sub_issue_added":                  plainEvent("Added a sub-issue"),
	"sub_issue_removed":                plainEvent("Removed a sub-issue"),
	"marked_as_duplicate":              plainEvent("Marked an issue as a duplicate of this one"),
	"unmarked_as_duplicate":            plainEvent("Unmarked an issue as a duplicate of this one"),
	"blocking_added":                   plainEvent("Marked this issue as blocking another"),
	"blocking_removed":                 plainEvent("Unmarked this issue as blocking another"),
	"blocked_by_added":                 plainEvent("Marked this issue as blocked by another"),
	"blocked_by_removed":               plainEvent("Unmarked this issue as blocked by another"),
	"added_to_merge_queue":             plainEvent("Added this pull request to the merge queue"),
	"removed_from_merge_queue":         plainEvent("Removed this pull request from the merge queue"),
	"added_to_project_v2":              plainEvent("Added this to a project"),
	"project_v2_item_status_changed":   plainEvent("Changed the status of this in a project"),
	"comment_deleted":                  plainEvent("Deleted a comment"),
	"connected": func(ev *github.IssueEvent) string {
		if ev.Issue != nil && ev.Issue.PullRequestLinks != nil {
			return "Linked an issue that may be closed by this pull request"
		}
		return "Linked a pull request that may close this issue"
	},
	"disconnected": func(ev *github.IssueEvent) string {
		if ev.Issue != nil && ev.Issue.PullRequestLinks != nil {
			return "Removed a link to a pull request"
		}
		return "Removed a link to an issue"
	},
}

func plainEvent(s string) func(*github.IssueEvent) string {
	return func(*github.IssueEvent) string { return s }
}

// formatCommitID renders a short linked commit hash. The events API has no
// HTML URL for commits, so one is derived from the API URLs.
func formatCommitID(ev *github.IssueEvent, preserveRepoURL bool) string {
	commitID := ev.GetCommitID()
	if ev.GetCommitURL() == "" {
		preserveRepoURL = false
	}
	var url string
	if preserveRepoURL {
		url = ev.GetCommitURL()
	} else {
		url = ev.Issue.GetRepositoryURL()
	}
	url = strings.Replace(url, "api.", "", 1)
	url = strings.Replace(url, "/repos", "", 1)
	url = strings.Replace(url, "commits", "commit", 1)
	if !preserveRepoURL {
		url += "/commit/" + commitID
	}
	short := commitID
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("[`%s`](<%s>)", short, url)
}

func (c *Client) issueEvent(ctx context.Context, key CommentKey) (*Comment, error) {
	event, _, err := c.rest.Issues.GetEvent(ctx, key.Ref.Owner, key.Ref.Repo, int64(key.ID))
	c.count("issues.get_event", err)
	if err != nil {
		return nil, err
	}
	entity, err := c.Entities.Get(ctx, key.Ref)
	if err != nil {
		return nil, err
	}

	name := event.GetEvent()
	var body string
	switch {
	case name == "review_requested" || name == "review_request_removed":
		var reviewer string
		if event.RequestedReviewer != nil {
			reviewer = event.RequestedReviewer.GetLogin()
		} else if event.RequestedTeam != nil {
			// Throw in the org name to make it clear that it's a team.
			org := event.RequestedTeam.GetHTMLURL()
			if parts := strings.SplitN(org, "/", 6); len(parts) > 4 {
				reviewer = parts[4] + "/" + event.RequestedTeam.GetName()
			} else {
				reviewer = event.RequestedTeam.GetName()
			}
		}
		if name == "review_requested" {
			body = fmt.Sprintf("Requested a review from `%s`", reviewer)
		} else {
			body = fmt.Sprintf("Removed the request for a review from `%s`", reviewer)
		}
	case entityUpdateEvents[name]:
		body = fmt.Sprintf("%s this %s", capitalize(name), strings.ToLower(string(entity.Kind)))
		if reason := event.GetLockReason(); reason != "" {
			body += fmt.Sprintf("\nReason: `%s`", reason)
		}
	case name == "review_dismissed":
		body, err = c.dismissedReviewBody(ctx, key, event)
		if err != nil {
			return nil, err
		}
	default:
		if format, ok := eventBodies[name]; ok {
			body = format(event)
		} else {
			body = fmt.Sprintf("👻 Unsupported event: `%s`", name)
		}
	}

	// The events API returns no HTML URL. "issues" works for PRs too,
	// GitHub redirects to the right type.
	url := fmt.Sprintf(
		"https://github.com/%s/%s/issues/%d#event-%d",
		key.Ref.Owner, key.Ref.Repo, key.Ref.Number, key.ID,
	)
	return &Comment{
		Author:    restUser(event.Actor),
		Body:      fmt.Sprintf("**%s**", body),
		Entity:    entity,
		CreatedAt: event.GetCreatedAt().Time,
		HTMLURL:   url,
		Kind:      "Event",
		Color:     ColorEvent,
	}, nil
}

func (c *Client) dismissedReviewBody(ctx context.Context, key CommentKey, event *github.IssueEvent) (string, error) {
	dismissed := event.DismissedReview
	review, _, err := c.rest.PullRequests.GetReview(
		ctx, key.Ref.Owner, key.Ref.Repo, key.Ref.Number, dismissed.GetReviewID(),
	)
	c.count("pulls.get_review", err)
	if err != nil {
		return "", err
	}
	author := "a"
	if review.User != nil {
		author = fmt.Sprintf("`%s`'s", review.User.GetLogin())
	}
	var commit string
	if id := dismissed.GetDismissalCommitID(); id != "" {
		short := id
		if len(short) > 7 {
			short = short[:7]
		}
		url := strings.Replace(event.Issue.GetRepositoryURL(), "api.", "", 1)
		url = strings.Replace(url, "/repos", "", 1)
		commit = fmt.Sprintf(" via [`%s`](<%s/commit/%s>)", short, url, id)
	}
	var msg string
	if m := dismissed.GetDismissalMessage(); m != "" {
		msg = ": " + m
	}
	return fmt.Sprintf(
		"Dismissed %s [stale review](<%s>)%s%s",
		author, review.GetHTMLURL(), commit, msg,
	), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
