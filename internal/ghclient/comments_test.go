// SPDX-License-Identifier: MIT

package ghclient

import (
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
)

func TestPrettifySuggestions(t *testing.T) {
	hunk := "@@ -1,3 +1,3 @@\n context\n-old line\n+new line"
	body := "Try this instead:\r\n" + crlfCodeBlock("suggestion", "better line")
	comment := &github.PullRequestComment{
		Body:         github.Ptr(body),
		DiffHunk:     github.Ptr(hunk),
		OriginalLine: github.Ptr(1),
	}

	out := prettifySuggestions(comment)
	assert.NotContains(t, out, "```suggestion")
	assert.Contains(t, out, "```diff")
	// The commented hunk line flips to a deletion, the suggestion is added.
	assert.Contains(t, out, "-new line")
	assert.Contains(t, out, "+better line")
}

func TestPrettifySuggestionsNoSuggestion(t *testing.T) {
	comment := &github.PullRequestComment{Body: github.Ptr("plain review comment")}
	assert.Equal(t, "plain review comment", prettifySuggestions(comment))
}

func TestCRLFCodeBlock(t *testing.T) {
	assert.Equal(t, "```diff\r\n-a\r\n+b\r\n```", crlfCodeBlock("diff", "-a\n+b"))
}
