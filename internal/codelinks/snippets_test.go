// SPDX-License-Identifier: MIT

package codelinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisp-term/wispbot/internal/cache"
	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/ghclient"
)

func newTestScanner(t *testing.T, files map[ghclient.ContentKey]string) *Scanner {
	t.Helper()
	store := cache.NewMemoryStore(time.Minute)
	for key, body := range files {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		env, err := json.Marshal(struct {
			At    time.Time       `json:"at"`
			Value json.RawMessage `json:"v"`
		}{time.Now(), raw})
		require.NoError(t, err)
		store.Set(context.Background(), key.String(), env, time.Hour)
	}

	gh := ghclient.New(config.GitHubConfig{Org: "wisp-term"}, config.CacheConfig{
		EntityTTR:  30 * time.Minute,
		OwnerTTR:   time.Hour,
		CommentTTR: 30 * time.Minute,
		ContentTTR: 30 * time.Minute,
	}, store)

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(gh, db, nil)
}

func TestCodeLinkRegexp(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    [][]string // owner, repo, rev, path, start, end
	}{
		{
			name:    "single line",
			content: "see https://github.com/wisp-term/wisp/blob/main/src/main.zig#L12",
			want:    [][]string{{"wisp-term", "wisp", "main", "src/main.zig", "12", ""}},
		},
		{
			name:    "line range",
			content: "https://github.com/wisp-term/wisp/blob/main/src/main.zig#L3-L7",
			want:    [][]string{{"wisp-term", "wisp", "main", "src/main.zig", "3", "7"}},
		},
		{
			name:    "column markers",
			content: "https://github.com/wisp-term/wisp/blob/main/src/main.zig#L3C4-L7C11",
			want:    [][]string{{"wisp-term", "wisp", "main", "src/main.zig", "3", "7"}},
		},
		{
			name:    "commit revision",
			content: "https://github.com/wisp-term/wisp/blob/0a1b2c3/README.md#L1",
			want:    [][]string{{"wisp-term", "wisp", "0a1b2c3", "README.md", "1", ""}},
		},
		{
			name:    "no line anchor",
			content: "https://github.com/wisp-term/wisp/blob/main/src/main.zig",
			want:    nil,
		},
		{
			name:    "not a blob url",
			content: "https://github.com/wisp-term/wisp/issues/42",
			want:    nil,
		},
		{
			name: "two links",
			content: "https://github.com/a/b/blob/main/x.py#L1 and " +
				"https://github.com/c/d/blob/dev/y.go#L2-L4",
			want: [][]string{
				{"a", "b", "main", "x.py", "1", ""},
				{"c", "d", "dev", "y.go", "2", "4"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := codeLinkRegexp.FindAllStringSubmatch(tt.content, -1)
			require.Len(t, matches, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want, matches[i][1:7])
			}
		})
	}
}

func TestFindSnippets(t *testing.T) {
	key := ghclient.ContentKey{Owner: "wisp-term", Repo: "wisp", Rev: "main", Path: "src/util.py"}
	s := newTestScanner(t, map[ghclient.ContentKey]string{
		key: "def a():\n    x = 1\n    y = 2\n    return x + y\n",
	})
	ctx := context.Background()

	snippets := FindSnippets(ctx, s.gh, "https://github.com/wisp-term/wisp/blob/main/src/util.py#L2-L3")
	require.Len(t, snippets, 1)
	assert.Equal(t, "wisp-term/wisp", snippets[0].Repo)
	assert.Equal(t, "py", snippets[0].Lang)
	assert.Equal(t, 2, snippets[0].Start)
	assert.Equal(t, 3, snippets[0].End)
	assert.Equal(t, "x = 1\ny = 2", snippets[0].Body, "common indentation is stripped")
}

func TestFindSnippetsClampsRange(t *testing.T) {
	key := ghclient.ContentKey{Owner: "o", Repo: "r", Rev: "main", Path: "a.txt"}
	s := newTestScanner(t, map[ghclient.ContentKey]string{key: "one\ntwo\nthree"})
	ctx := context.Background()

	snippets := FindSnippets(ctx, s.gh, "https://github.com/o/r/blob/main/a.txt#L2-L99")
	require.Len(t, snippets, 1)
	assert.Equal(t, "two\nthree", snippets[0].Body)
	assert.Equal(t, 3, snippets[0].End)

	snippets = FindSnippets(ctx, s.gh, "https://github.com/o/r/blob/main/a.txt#L99")
	assert.Empty(t, snippets, "range past the end of the file is dropped")
}

func TestFindSnippetsLangSubstitution(t *testing.T) {
	key := ghclient.ContentKey{Owner: "o", Repo: "r", Rev: "main", Path: "init.el"}
	s := newTestScanner(t, map[ghclient.ContentKey]string{key: "(setq x 1)"})

	snippets := FindSnippets(context.Background(), s.gh, "https://github.com/o/r/blob/main/init.el#L1")
	require.Len(t, snippets, 1)
	assert.Equal(t, "lisp", snippets[0].Lang)
}

func TestSnippetFormat(t *testing.T) {
	s := Snippet{
		Repo: "wisp-term/wisp", Path: "src/main.zig", Rev: "main",
		Lang: "ansi", Body: "pub fn main() void {}", Start: 4, End: 9,
	}
	out := s.Format(true)
	assert.Contains(t, out, "[`src/main.zig`](<https://github.com/wisp-term/wisp/blob/main/src/main.zig>)")
	assert.Contains(t, out, "[lines 4–9](<https://github.com/wisp-term/wisp/blob/main/src/main.zig#L4-L9>)")
	assert.Contains(t, out, "branch: [`main`](<https://github.com/wisp-term/wisp/tree/main>)")
	assert.Contains(t, out, "```ansi\npub fn main() void {}\n```")

	s.Rev = "0a1b2c3d"
	assert.Contains(t, s.Format(false), "revision: [`0a1b2c3d`]")
	assert.NotContains(t, s.Format(false), "```")

	s.End = s.Start
	assert.Contains(t, s.Format(false), "[line 4](<https://github.com/wisp-term/wisp/blob/0a1b2c3d/src/main.zig#L4>)")
}

func TestProcessSingleOversizedSnippet(t *testing.T) {
	key := ghclient.ContentKey{Owner: "o", Repo: "r", Rev: "main", Path: "big.go"}
	body := strings.Repeat("some reasonably long line of code here\n", 80)
	s := newTestScanner(t, map[ghclient.ContentKey]string{key: body})

	out, err := s.Process(context.Background(), &discordgo.Message{
		Content: "https://github.com/o/r/blob/main/big.go#L1-L80",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.ItemCount)
	assert.NotContains(t, out.Content, "```", "body goes out as a file, not a codeblock")
	require.Len(t, out.Files, 1)
	assert.Equal(t, "big.go", out.Files[0].Name)
}

func TestProcessOmitsOverflowingSnippets(t *testing.T) {
	files := make(map[ghclient.ContentKey]string)
	var links []string
	for i := range 5 {
		key := ghclient.ContentKey{Owner: "o", Repo: "r", Rev: "main", Path: fmt.Sprintf("f%d.txt", i)}
		files[key] = strings.Repeat("x", 500) + "\n" + strings.Repeat("y", 400)
		links = append(links, fmt.Sprintf("https://github.com/o/r/blob/main/f%d.txt#L1-L2", i))
	}
	s := newTestScanner(t, files)

	out, err := s.Process(context.Background(), &discordgo.Message{Content: strings.Join(links, " ")})
	require.NoError(t, err)
	assert.Equal(t, 5, out.ItemCount)
	assert.LessOrEqual(t, len(out.Content), 2000)
	assert.Contains(t, out.Content, "-# Some snippets were omitted")
}

func TestProcessAllSnippetsOmitted(t *testing.T) {
	key := ghclient.ContentKey{Owner: "o", Repo: "r", Rev: "main", Path: "wall.txt"}
	s := newTestScanner(t, map[ghclient.ContentKey]string{
		key: strings.Repeat("z", 1200) + "\n" + strings.Repeat("w", 1200),
	})

	content := "https://github.com/o/r/blob/main/wall.txt#L1-L2 " +
		"https://github.com/o/r/blob/main/wall.txt#L1"
	out, err := s.Process(context.Background(), &discordgo.Message{Content: content})
	require.NoError(t, err)
	assert.Equal(t, -1, out.ItemCount, "nothing fits, original embeds still get suppressed")
	assert.Empty(t, out.Content)
}

func TestProcessNoLinks(t *testing.T) {
	s := newTestScanner(t, nil)
	out, err := s.Process(context.Background(), &discordgo.Message{Content: "plain message"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ItemCount)
}
