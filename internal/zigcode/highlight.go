// SPDX-License-Identifier: MIT

package zigcode

import "strings"

// Highlight renders Zig source with SGR escapes per the theme.
func Highlight(src string, theme Theme) string {
	var out strings.Builder
	for _, tok := range tokenize(src) {
		style, ok := theme[tok.kind]
		if !ok || tok.kind == TokenPlain {
			out.WriteString(tok.text)
			continue
		}
		out.WriteString(style.SGR())
		out.WriteString(tok.text)
		out.WriteString(Reset)
	}
	return out.String()
}

// ProcessMarkdown rewrites every ```zig codeblock in source into a
// highlighted ```ansi block. With onlyCode, just the rewritten blocks are
// returned, joined by newlines.
func ProcessMarkdown(source string, theme Theme, onlyCode bool) string {
	var rewritten []string
	result := source
	for _, cb := range ExtractCodeBlocks(source) {
		if cb.Lang != "zig" {
			continue
		}
		block := "```ansi\n" + Highlight(cb.Body, theme) + "```"
		result = strings.Replace(result, cb.Raw, block, 1)
		rewritten = append(rewritten, block)
	}
	if onlyCode {
		return strings.Join(rewritten, "\n")
	}
	return result
}

// ProcessDiscordMarkdown is ProcessMarkdown hardened against Discord's
// client-side highlighting heuristics: Discord disables ANSI rendering when
// the source has long slash runs or too many slashes overall, so a reset
// sequence is injected ahead of comment markers to break those patterns up.
func ProcessDiscordMarkdown(source string, onlyCode bool) string {
	out := ProcessMarkdown(source, DiscordTheme(), onlyCode)
	out = strings.ReplaceAll(out, "///", Reset+"///")
	return strings.ReplaceAll(out, "// ", Reset+"// ")
}
