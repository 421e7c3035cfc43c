// SPDX-License-Identifier: MIT

package zigcode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisp-term/wispbot/internal/linker"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewScanner(db, nil)
}

func TestProcessHighlightsCodeblock(t *testing.T) {
	s := newTestScanner(t)
	out, err := s.Process(context.Background(), &discordgo.Message{
		Content: "look:\n```zig\nconst x: u32 = 1;\n```",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.ItemCount)
	assert.Contains(t, out.Content, "```ansi\n")
	assert.NotContains(t, out.Content, "```zig")
	assert.Empty(t, out.Files)
}

func TestProcessIgnoresPlainMessages(t *testing.T) {
	s := newTestScanner(t)
	out, err := s.Process(context.Background(), &discordgo.Message{
		Content: "no code here, just ```\nplain fences\n```",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ItemCount)
	assert.Empty(t, out.Content)
}

func TestProcessFetchesZigAttachments(t *testing.T) {
	body := "const a = 1;\n" + strings.Repeat("// pad line\n", 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	s := newTestScanner(t)
	out, err := s.Process(context.Background(), &discordgo.Message{
		Attachments: []*discordgo.MessageAttachment{{
			Filename: "build.zig",
			Size:     len(body),
			URL:      srv.URL + "/build.zig",
		}},
	})
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	assert.Equal(t, "build.zig.ansi", out.Files[0].Name)
	assert.Equal(t, 2, out.ItemCount) // the hint chunk plus the file
	assert.Contains(t, out.Content, "View whole file")
}

func TestProcessSkipsNonZigAttachments(t *testing.T) {
	s := newTestScanner(t)
	out, err := s.Process(context.Background(), &discordgo.Message{
		Attachments: []*discordgo.MessageAttachment{{
			Filename: "notes.txt",
			Size:     10,
			URL:      "http://invalid.example/never-fetched",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ItemCount)
}

func TestProcessContentIsLastChunk(t *testing.T) {
	// Enough highlighted output to need more than one message.
	var b strings.Builder
	b.WriteString("```zig\n")
	for range 120 {
		b.WriteString("const some_long_identifier_name: u64 = 0xDEADBEEF; // filler\n")
	}
	b.WriteString("```")

	s := newTestScanner(t)
	out, err := s.Process(context.Background(), &discordgo.Message{Content: b.String()})
	require.NoError(t, err)
	assert.Greater(t, out.ItemCount, 1)
	assert.LessOrEqual(t, len(out.Content), 2000)
	assert.True(t, strings.HasSuffix(strings.TrimRight(out.Content, "\n"), "```"))
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	s := newTestScanner(t)
	_, err := s.fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestReplyTimeoutLongerThanDefault(t *testing.T) {
	assert.Greater(t, ReplyTimeout, linker.ViewTimeout)
}
