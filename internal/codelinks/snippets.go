// SPDX-License-Identifier: MIT

// Package codelinks replies to GitHub blob links carrying a #L line range
// with the referenced lines as a codeblock.
package codelinks

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/zigcode"
)

var codeLinkRegexp = regexp.MustCompile(
	`https?://(?:www\.)?github\.com/([^/\s]+)/([^/\s]+)/blob/([^/\s]+)/([^?#\s]+)` +
		`(?:[^#\s]*)?#L(\d+)(?:C\d+)?(?:-L(\d+)(?:C\d+)?)?`,
)

// langSubstitutions maps file extensions onto the closest language Discord
// can highlight.
var langSubstitutions = map[string]string{
	"el":  "lisp",
	"pyi": "py",
	"fnl": "clojure",
	"m":   "objc",
}

// Snippet is one linked code range, resolved and ready to format.
type Snippet struct {
	Repo  string // owner/name
	Path  string
	Rev   string
	Lang  string
	Body  string
	Start int // 1-indexed, inclusive
	End   int // inclusive
}

// FindSnippets resolves every code link in content.
func FindSnippets(ctx context.Context, gh *ghclient.Client, content string) []Snippet {
	var snippets []Snippet
	for _, m := range codeLinkRegexp.FindAllStringSubmatch(content, -1) {
		key := ghclient.ContentKey{
			Owner: m[1],
			Repo:  m[2],
			Rev:   m[3],
			Path:  strings.TrimRight(m[4], "/"),
		}
		start, err := strconv.Atoi(m[5])
		if err != nil || start < 1 {
			continue
		}
		end := start
		if m[6] != "" {
			if end, err = strconv.Atoi(m[6]); err != nil {
				continue
			}
		}

		fileContent, err := gh.Contents.Get(ctx, key)
		if err != nil {
			log.WithComponentFromContext(ctx, "codelinks").Debug().
				Err(err).
				Str(log.FieldOwner, key.Owner).
				Str(log.FieldRepo, key.Repo).
				Msg("content lookup failed")
			continue
		}

		lines := strings.Split(fileContent, "\n")
		if start > len(lines) {
			continue
		}
		if end > len(lines) {
			end = len(lines)
		}
		if end < start {
			end = start
		}
		selected := strings.Join(lines[start-1:end], "\n")

		lang := strings.TrimPrefix(path.Ext(key.Path), ".")
		if lang == "zig" {
			lang = "ansi"
			selected = zigcode.Highlight(selected, zigcode.DiscordTheme())
		}
		if sub, ok := langSubstitutions[lang]; ok {
			lang = sub
		}
		snippets = append(snippets, Snippet{
			Repo:  key.Owner + "/" + key.Repo,
			Path:  key.Path,
			Rev:   key.Rev,
			Lang:  lang,
			Body:  dedent(selected),
			Start: start,
			End:   end,
		})
	}
	return snippets
}

// Format renders a snippet header with optional body codeblock.
func (s Snippet) Format(includeBody bool) string {
	repoURL := "https://github.com/" + s.Repo
	treeURL := repoURL + "/tree/" + s.Rev
	fileURL := repoURL + "/blob/" + s.Rev + "/" + s.Path

	var rangeInfo string
	if s.End > s.Start {
		rangeInfo = fmt.Sprintf("[lines %d–%d](<%s#L%d-L%d>)", s.Start, s.End, fileURL, s.Start, s.End)
	} else {
		rangeInfo = fmt.Sprintf("[line %d](<%s#L%d>)", s.Start, fileURL, s.Start)
	}

	unquoted := s.Path
	if u, err := url.PathUnescape(s.Path); err == nil {
		unquoted = u
	}
	refType := "branch"
	if isHexRevision(s.Rev) {
		refType = "revision"
	}
	out := fmt.Sprintf(
		"[`%s`](<%s>), %s\n-# Repo: [`%s`](<%s>), %s: [`%s`](<%s>)",
		unquoted, fileURL, rangeInfo, s.Repo, repoURL, refType, s.Rev, treeURL,
	)
	if includeBody {
		out += fmt.Sprintf("\n```%s\n%s\n```", s.Lang, s.Body)
	}
	return out
}

func isHexRevision(rev string) bool {
	if rev == "" {
		return false
	}
	for _, c := range rev {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// dedent strips the longest common leading whitespace from all non-blank
// lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin = indent
			first = false
			continue
		}
		for !strings.HasPrefix(indent, margin) {
			margin = margin[:len(margin)-1]
		}
	}
	if margin == "" {
		return s
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}
