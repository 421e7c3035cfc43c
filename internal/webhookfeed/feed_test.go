// SPDX-License-Identifier: MIT

package webhookfeed

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedRequest(t *testing.T, secret, event string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestServeHTTPRejectsBadSignature(t *testing.T) {
	h := New("secret", "42", nil)
	req := signedRequest(t, "wrong-secret", "issues", []byte(`{"action":"opened"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeHTTPIgnoresUntrackedAction(t *testing.T) {
	h := New("secret", "42", nil)
	req := signedRequest(t, "secret", "issues", []byte(`{"action":"labeled"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	// No embed, no session call, just an ack.
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestToEmbedIssues(t *testing.T) {
	h := New("secret", "42", nil)
	embed, action := h.toEmbed(&github.IssuesEvent{
		Action: github.Ptr("opened"),
		Issue: &github.Issue{
			Number:  github.Ptr(7),
			Title:   github.Ptr("flickering on resize"),
			HTMLURL: github.Ptr("https://github.com/wisp-term/wisp/issues/7"),
		},
		Sender: &github.User{Login: github.Ptr("octocat")},
	})
	require.NotNil(t, embed)
	assert.Equal(t, "opened", action)
	assert.Equal(t, "Issue opened: #7 flickering on resize", embed.Title)
	assert.Equal(t, colorOpened, embed.Color)
	assert.Equal(t, "octocat", embed.Author.Name)
}

func TestToEmbedMergedPR(t *testing.T) {
	h := New("secret", "42", nil)
	embed, action := h.toEmbed(&github.PullRequestEvent{
		Action: github.Ptr("closed"),
		PullRequest: &github.PullRequest{
			Number: github.Ptr(12),
			Title:  github.Ptr("add kitty graphics protocol"),
			Merged: github.Ptr(true),
		},
	})
	require.NotNil(t, embed)
	assert.Equal(t, "merged", action)
	assert.Contains(t, embed.Title, "PR merged")
	assert.Equal(t, colorMerged, embed.Color)
}

func TestToEmbedDiscussionAnswered(t *testing.T) {
	h := New("secret", "42", nil)
	embed, action := h.toEmbed(&github.DiscussionEvent{
		Action: github.Ptr("answered"),
		Discussion: &github.Discussion{
			Number: github.Ptr(3),
			Title:  github.Ptr("How do I set a theme?"),
		},
	})
	require.NotNil(t, embed)
	assert.Equal(t, "answered", action)
	assert.Equal(t, colorAnswered, embed.Color)
}

func TestToEmbedIgnoresUnknownEvents(t *testing.T) {
	h := New("secret", "42", nil)
	embed, action := h.toEmbed(&github.PushEvent{})
	assert.Nil(t, embed)
	assert.Equal(t, "ignored", action)
}
