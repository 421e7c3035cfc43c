// SPDX-License-Identifier: MIT

// Package mentions resolves GitHub entity mentions in chat messages
// (#123, repo#123, owner/repo#123, or full URLs) and replies with a short
// summary of each referenced issue, pull request, or discussion.
package mentions

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/zigcode"
)

// maxSignatures caps how many mentions a single message resolves.
const maxSignatures = 10

var entityRegexp = regexp.MustCompile(
	`(?i)(\bhttps?://(?:www\.)?github\.com/)?` +
		`(\b[a-z0-9-]+/)?` +
		`(\b[a-z0-9\-._]+)?` +
		`(/(?:issues|pull|discussions)/|#)` +
		`(\d{1,6})\b`,
)

// rejectedTail disqualifies matches that are version-like (1.2) or part of
// a longer fragment link (123/#, 123#).
var rejectedTail = regexp.MustCompile(`^(\.\d|/?#)`)

// resolution is the outcome of scanning one message.
type resolution struct {
	refs []ghclient.Ref
	// hadURL is set when any mention came in as a full GitHub URL, in
	// which case the original message's embeds get suppressed.
	hadURL bool
}

// resolveSignatures extracts up to maxSignatures entity refs from content.
// Codeblocks are stripped first so code samples do not trigger replies.
func (s *Scanner) resolveSignatures(ctx context.Context, content string) resolution {
	var res resolution
	content = zigcode.StripCodeBlocks(content)

	valid := 0
	for _, m := range entityRegexp.FindAllStringSubmatchIndex(content, -1) {
		group := func(i int) string {
			if m[2*i] == -1 {
				return ""
			}
			return content[m[2*i]:m[2*i+1]]
		}
		if rejectedTail.MatchString(content[m[1]:]) {
			continue
		}
		site, owner, repo, sep := group(1), group(2), group(3), group(4)
		// A URL must use the path separator, a shorthand the "#" form.
		if (site != "") == (sep == "#") {
			continue
		}
		number, err := strconv.Atoi(group(5))
		if err != nil {
			continue
		}
		if site != "" {
			res.hadURL = true
		}

		switch {
		case owner == "" && repo == "":
			if number < 10 && site == "" {
				// Single-digit bare mentions like #1 are almost
				// always false positives.
				continue
			}
			res.refs = append(res.refs, ghclient.Ref{
				Owner: s.cfg.Org, Repo: s.cfg.Repos["main"], Number: number,
			})
		case owner == "":
			if name, ok := s.cfg.RepoFor(repo); ok {
				res.refs = append(res.refs, ghclient.Ref{
					Owner: s.cfg.Org, Repo: name, Number: number,
				})
				break
			}
			if repo == "xkcd" {
				// Handled by the xkcd scanner.
				continue
			}
			repoOwner, err := s.gh.Owners.Get(ctx, repo)
			if err != nil {
				log.WithComponentFromContext(ctx, "mentions").Debug().
					Err(err).
					Str(log.FieldRepo, repo).
					Msg("owner lookup failed")
			} else {
				res.refs = append(res.refs, ghclient.Ref{
					Owner: repoOwner, Repo: repo, Number: number,
				})
			}
		case repo == "":
			// Invalid, e.g. owner/#123.
			continue
		default:
			res.refs = append(res.refs, ghclient.Ref{
				Owner: strings.TrimSuffix(owner, "/"), Repo: repo, Number: number,
			})
		}
		valid++
		if valid == maxSignatures {
			break
		}
	}
	res.refs = dedupe(res.refs)
	return res
}

// dedupe keeps the first occurrence of each item, preserving order.
func dedupe[T comparable](items []T) []T {
	seen := make(map[T]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
