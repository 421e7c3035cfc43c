// SPDX-License-Identifier: MIT

package zigcode

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCodeBlocks(t *testing.T) {
	source := "before\n```zig\nconst x = 1;\n```\nmiddle\n```\nplain\n```\nafter"
	blocks := ExtractCodeBlocks(source)
	require.Len(t, blocks, 2)
	assert.Equal(t, "zig", blocks[0].Lang)
	assert.Equal(t, "const x = 1;\n", blocks[0].Body)
	assert.Equal(t, "```zig\nconst x = 1;\n```", blocks[0].Raw)
	assert.Empty(t, blocks[1].Lang)
}

func TestStripCodeBlocks(t *testing.T) {
	source := "see #123 ```zig\n// #456\n``` and #789"
	stripped := StripCodeBlocks(source)
	assert.Contains(t, stripped, "#123")
	assert.Contains(t, stripped, "#789")
	assert.NotContains(t, stripped, "#456")
}

func TestTokenizeRoundTrips(t *testing.T) {
	src := "pub fn main() !void {\n" +
		"    // a comment\n" +
		"    const x: u32 = 0xFF_FF;\n" +
		"    const s =\n        \\\\multi\n    ;\n" +
		"    @panic(\"bye\");\n" +
		"}\n"
	var rebuilt strings.Builder
	for _, tok := range tokenize(src) {
		rebuilt.WriteString(tok.text)
	}
	assert.Equal(t, src, rebuilt.String())
}

func TestTokenizeClassification(t *testing.T) {
	kinds := map[string]TokenKind{}
	for _, tok := range tokenize("blk: { break :blk @min(foo(), 0b101); } // done\n\"str\" u64 if") {
		if tok.kind != TokenPlain {
			kinds[tok.text] = tok.kind
		}
	}
	assert.Equal(t, TokenLabel, kinds["blk"])
	assert.Equal(t, TokenBuiltin, kinds["@min"])
	assert.Equal(t, TokenCall, kinds["foo"])
	assert.Equal(t, TokenNumber, kinds["0b101"])
	assert.Equal(t, TokenComment, kinds["// done"])
	assert.Equal(t, TokenString, kinds[`"str"`])
	assert.Equal(t, TokenType, kinds["u64"])
	assert.Equal(t, TokenKeyword, kinds["if"])
}

func TestHighlightStylesKeywords(t *testing.T) {
	out := Highlight("const x = 1;", DefaultTheme())
	assert.Contains(t, out, "\x1b[31mconst"+Reset)
	assert.Contains(t, out, "\x1b[36m1"+Reset)
}

func TestDiscordThemeLeavesCommentsPlain(t *testing.T) {
	out := Highlight("// note\nconst x = 1;", DiscordTheme())
	assert.NotContains(t, out, "\x1b[30m")
	assert.Contains(t, out, "\x1b[31mconst")
}

func TestProcessMarkdown(t *testing.T) {
	source := "look:\n```zig\nvar a = 1;\n```\ndone"
	out := ProcessMarkdown(source, DiscordTheme(), false)
	assert.True(t, strings.HasPrefix(out, "look:\n```ansi\n"))
	assert.Contains(t, out, "\x1b[31mvar")
	assert.True(t, strings.HasSuffix(out, "```\ndone"))

	only := ProcessMarkdown(source, DiscordTheme(), true)
	assert.True(t, strings.HasPrefix(only, "```ansi\n"))
	assert.NotContains(t, only, "look:")
}

func TestProcessDiscordMarkdownCommentWorkaround(t *testing.T) {
	out := ProcessDiscordMarkdown("```zig\n/// doc\n// plain\n```", true)
	// The doc comment marker gets both rewrites applied.
	assert.Contains(t, out, Reset+"/"+Reset+"// doc")
	assert.Contains(t, out, Reset+"// plain")
}

func TestSplitShort(t *testing.T) {
	parts := Split("```ansi\nshort\n```")
	require.Len(t, parts, 1)
}

func TestSplitNeverBreaksFences(t *testing.T) {
	var lines []string
	lines = append(lines, "```ansi", "\x1b[31mconst\x1b[0m start")
	for i := 0; i < 120; i++ {
		lines = append(lines, fmt.Sprintf("line %03d with some padding to lengthen it", i))
	}
	lines = append(lines, "```")
	parts := Split(strings.Join(lines, "\n"))
	require.Greater(t, len(parts), 1)
	for i, part := range parts {
		assert.LessOrEqual(t, len(part), MessageLimit, "part %d too long", i)
		assert.True(t, strings.HasPrefix(part, "```ansi"), "part %d must open a fence", i)
		assert.True(t, strings.HasSuffix(part, "```"), "part %d must close its fence", i)
	}
	// The active style at the first break carries into the second part.
	assert.Contains(t, parts[1], "\x1b[0m")
}

func TestPrepareReplyInlinesShortAttachment(t *testing.T) {
	att := Attachment{
		Filename: "main.zig",
		Size:     20,
		Fetch: func(context.Context) ([]byte, error) {
			return []byte("const a = 1;\n"), nil
		},
	}
	reply, err := PrepareReply(context.Background(), "no code here", []Attachment{att})
	require.NoError(t, err)
	require.Len(t, reply.Contents, 1)
	assert.Empty(t, reply.Files)
	assert.Contains(t, reply.Contents[0], "\x1b[31mconst")
}

func TestPrepareReplyAttachesLongFile(t *testing.T) {
	long := strings.Repeat("const aaaa = 1;\n", 200)
	att := Attachment{
		Filename: "big.zig",
		Size:     len(long),
		Fetch: func(context.Context) ([]byte, error) {
			return []byte(long), nil
		},
	}
	reply, err := PrepareReply(context.Background(), "", []Attachment{att})
	require.NoError(t, err)
	require.Len(t, reply.Files, 1)
	assert.Equal(t, "big.zig.ansi", reply.Files[0].Name)
	assert.Equal(t, []string{fileHighlightNote}, reply.Contents)
}

func TestPrepareReplySkipsNonZig(t *testing.T) {
	att := Attachment{
		Filename: "readme.md",
		Size:     10,
		Fetch: func(context.Context) ([]byte, error) {
			t.Fatal("must not fetch non-zig attachments")
			return nil, nil
		},
	}
	reply, err := PrepareReply(context.Background(), "plain text", []Attachment{att})
	require.NoError(t, err)
	assert.True(t, reply.Empty())
}
