// SPDX-License-Identifier: MIT

package discordx

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeSpecial(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"mentions", "hi @everyone and @here", "hi @\u200beveryone and @\u200bhere"},
		{"user mention", "<@123456789012345678>", "\\<@\u200b123456789012345678\\>"},
		{"markdown", "*bold* and `code`", "\\*bold\\* and \\`code\\`"},
		{"angle brackets", "a <tag> b", "a \\<tag\\> b"},
		{"invite link", "join discord.gg/abc now", "join <https://discord.gg/abc> now"},
		{"ordered list", "1. first\n2. second", "1\\. first\n2\\. second"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EscapeSpecial(tc.in))
		})
	}
}

func TestDynamicTimestamp(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "<t:1700000000>", DynamicTimestamp(ts, ""))
	assert.Equal(t, "<t:1700000000:R>", DynamicTimestamp(ts, "R"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "this is c…", Truncate("this is cut off", 10))
}

func TestFormatDiffNote(t *testing.T) {
	assert.Equal(t, "diff size: `+12` `-3` (4 files changed)", FormatDiffNote(12, 3, 4))
	assert.Empty(t, FormatDiffNote(0, 0, 4))
	assert.Empty(t, FormatDiffNote(12, 3, 0))
}

func TestFormatOrFile(t *testing.T) {
	content, file := FormatOrFile("hello", "before {} after")
	assert.Equal(t, "before hello after", content)
	assert.Nil(t, file)

	long := make([]byte, 2100)
	for i := range long {
		long[i] = 'x'
	}
	content, file = FormatOrFile(string(long), "{}")
	assert.Empty(t, content)
	require.NotNil(t, file)
	assert.Equal(t, "content.md", file.Name)
}

func TestPostHasTag(t *testing.T) {
	tags := []discordgo.ForumTag{
		{ID: "1", Name: "Solved"},
		{ID: "2", Name: "Needs Info"},
	}
	post := &discordgo.Channel{AppliedTags: []string{"1"}}
	assert.True(t, PostHasTag(post, tags, "solved"))
	assert.False(t, PostHasTag(post, tags, "stale"))
	assert.True(t, PostIsSolved(post, tags))

	open := &discordgo.Channel{AppliedTags: []string{"2"}}
	assert.False(t, PostIsSolved(open, tags))
}

func TestGenerateAutocomplete(t *testing.T) {
	choices := []AutocompleteChoice{
		{Name: "Keybindings", Value: "keybind"},
		{Name: "Install", Value: "install"},
		{Name: "Key Sequences", Value: "keyseq"},
	}
	out := GenerateAutocomplete("key", choices)
	require.Len(t, out, 2)
	assert.Equal(t, "Key Sequences", out[0].Name)
	assert.Equal(t, "Keybindings", out[1].Name)
}
