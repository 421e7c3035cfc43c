// SPDX-License-Identifier: MIT

package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisp-term/wispbot/internal/cache"
)

// newTestClient points a Client at a fake GitHub REST API.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rest := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	rest.BaseURL = base

	c := &Client{rest: rest, org: "wisp-term"}
	store := cache.NewMemoryStore(time.Minute)
	c.Entities = cache.NewTTR("entity", store, 30*time.Minute, Ref.String, c.fetchEntity)
	c.Owners = cache.NewTTR("owner", store, time.Hour, func(k string) string { return k }, c.fetchOwner)
	c.Contents = cache.NewTTR("content", store, 30*time.Minute, ContentKey.String, c.fetchContent)
	c.Comments = cache.NewTTR("comment", store, 30*time.Minute, CommentKey.String, c.fetchComment)
	return c
}

func TestFetchEntityIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/wisp-term/wisp/issues/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"number": 42,
			"title": "Crash on resize",
			"state": "closed",
			"state_reason": "completed",
			"html_url": "https://github.com/wisp-term/wisp/issues/42",
			"user": {"login": "octocat", "html_url": "https://github.com/octocat"},
			"labels": [{"name": "bug"}, {"name": "crash"}]
		}`)
	})
	c := newTestClient(t, mux)

	e, err := c.Entities.Get(context.Background(), Ref{"wisp-term", "wisp", 42})
	require.NoError(t, err)
	assert.Equal(t, KindIssue, e.Kind)
	assert.Equal(t, "Crash on resize", e.Title)
	assert.True(t, e.Closed)
	assert.Equal(t, "completed", e.StateReason)
	assert.Equal(t, []string{"bug", "crash"}, e.Labels)
	assert.Equal(t, "octocat", e.User.Login)
}

func TestFetchEntityPull(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/wisp-term/wisp/issues/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 7, "pull_request": {"url": "x"}}`)
	})
	mux.HandleFunc("/repos/wisp-term/wisp/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"number": 7,
			"title": "Add kitty graphics protocol",
			"state": "open",
			"draft": true,
			"additions": 120,
			"deletions": 8,
			"changed_files": 4,
			"user": {"login": "contributor"}
		}`)
	})
	c := newTestClient(t, mux)

	e, err := c.Entities.Get(context.Background(), Ref{"wisp-term", "wisp", 7})
	require.NoError(t, err)
	assert.Equal(t, KindPull, e.Kind)
	assert.True(t, e.Draft)
	assert.False(t, e.Merged)
	assert.Equal(t, 120, e.Additions)
	assert.Equal(t, 4, e.ChangedFiles)
}

func TestFetchOwner(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "uv", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"total_count": 2, "items": [
			{"name": "uv-tools", "owner": {"login": "nobody"}},
			{"name": "uv", "owner": {"login": "astral-sh"}}
		]}`)
	})
	c := newTestClient(t, mux)

	owner, err := c.Owners.Get(context.Background(), "uv")
	require.NoError(t, err)
	assert.Equal(t, "astral-sh", owner)
}

func TestFetchOwnerNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count": 0, "items": []}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Owners.Get(context.Background(), "definitely-not-a-repo")
	require.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestDiscussionCommentNodeID(t *testing.T) {
	cases := map[uint64]string{
		5:           "DC_kwAABQ==",
		200:         "DC_kwAAzMg=",
		12345:       "DC_kwAAzTA5",
		12345678:    "DC_kwAAzgC8YU4=",
		99999999999: "DC_kwAAzwAAABdIduf_",
	}
	for id, want := range cases {
		assert.Equal(t, want, discussionCommentNodeID(id), "id %d", id)
	}
}

func TestIssueComment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/wisp-term/wisp/issues/comments/1000", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"body": "works for me",
			"html_url": "https://github.com/wisp-term/wisp/issues/3#issuecomment-1000",
			"user": {"login": "helper"},
			"reactions": {"total_count": 2, "+1": 2}
		}`)
	})
	mux.HandleFunc("/repos/wisp-term/wisp/issues/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 3, "title": "Font rendering", "state": "open"}`)
	})
	c := newTestClient(t, mux)

	comment, err := c.Comments.Get(context.Background(), CommentKey{
		Ref: Ref{"wisp-term", "wisp", 3}, Prefix: "issuecomment-", ID: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "helper", comment.Author.Login)
	assert.Equal(t, "works for me", comment.Body)
	require.NotNil(t, comment.Reactions)
	assert.Equal(t, 2, comment.Reactions.PlusOne)
	assert.Equal(t, "Font rendering", comment.Entity.Title)
	assert.Empty(t, comment.Kind)
}

func TestPullReviewStateColor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/wisp-term/wisp/pulls/9/reviews/55", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"body": "lgtm",
			"state": "APPROVED",
			"html_url": "https://github.com/wisp-term/wisp/pull/9#pullrequestreview-55",
			"user": {"login": "reviewer"}
		}`)
	})
	mux.HandleFunc("/repos/wisp-term/wisp/issues/9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 9, "pull_request": {"url": "x"}}`)
	})
	mux.HandleFunc("/repos/wisp-term/wisp/pulls/9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 9, "title": "Scrollback rework", "state": "open"}`)
	})
	c := newTestClient(t, mux)

	comment, err := c.Comments.Get(context.Background(), CommentKey{
		Ref: Ref{"wisp-term", "wisp", 9}, Prefix: "pullrequestreview-", ID: 55,
	})
	require.NoError(t, err)
	assert.Equal(t, "Review", comment.Kind)
	assert.Equal(t, ColorApproved, comment.Color)
	assert.Nil(t, comment.Reactions)
}

func TestEntityStarter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/wisp-term/wisp/issues/12", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"number": 12,
			"title": "Ligature support",
			"body": "It would be nice to have ligatures.",
			"state": "open",
			"user": {"login": "opener"}
		}`)
	})
	c := newTestClient(t, mux)

	comment, err := c.Comments.Get(context.Background(), CommentKey{
		Ref: Ref{"wisp-term", "wisp", 12}, Prefix: "issue-", ID: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "opener", comment.Author.Login)
	assert.Equal(t, "It would be nice to have ligatures.", comment.Body)
}

func TestIssueEventBodies(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{
			`{"event": "labeled", "label": {"name": "needs-triage"}, "created_at": "2025-01-01T00:00:00Z"}`,
			"**Added the `needs-triage` label**",
		},
		{
			`{"event": "closed", "created_at": "2025-01-01T00:00:00Z"}`,
			"**Closed this issue**",
		},
		{
			`{"event": "locked", "lock_reason": "too heated", "created_at": "2025-01-01T00:00:00Z"}`,
			"**Locked this issue\nReason: `too heated`**",
		},
		{
			`{"event": "made_up_event", "created_at": "2025-01-01T00:00:00Z"}`,
			"**👻 Unsupported event: `made_up_event`**",
		},
	}
	for i, tc := range cases {
		id := int64(9000 + i)
		mux := http.NewServeMux()
		mux.HandleFunc(fmt.Sprintf("/repos/wisp-term/wisp/issues/events/%d", id), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, tc.payload)
		})
		mux.HandleFunc("/repos/wisp-term/wisp/issues/5", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"number": 5, "title": "t", "state": "open"}`)
		})
		c := newTestClient(t, mux)

		comment, err := c.Comments.Get(context.Background(), CommentKey{
			Ref: Ref{"wisp-term", "wisp", 5}, Prefix: "event-", ID: uint64(id),
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, comment.Body)
		assert.Equal(t, "Event", comment.Kind)
		assert.Equal(t, ColorEvent, comment.Color)
		assert.Equal(t,
			fmt.Sprintf("https://github.com/wisp-term/wisp/issues/5#event-%d", id),
			comment.HTMLURL,
		)
	}
}

func TestSupportedCommentPrefix(t *testing.T) {
	assert.True(t, SupportedCommentPrefix("issuecomment-"))
	assert.True(t, SupportedCommentPrefix("discussion_r"))
	assert.False(t, SupportedCommentPrefix("commitcomment-"))
}
