// SPDX-License-Identifier: MIT

// Package zigcode extracts fenced codeblocks from markdown and renders Zig
// source as ANSI-highlighted text that Discord can display.
package zigcode

import "regexp"

var codeBlockRegexp = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)\r?\n?(.*?)```")

// CodeBlock is a fenced markdown codeblock.
type CodeBlock struct {
	Lang string
	Body string
	// Raw is the block exactly as it appeared in the source, fences
	// included.
	Raw string
}

// ExtractCodeBlocks returns all fenced codeblocks in source, in order.
func ExtractCodeBlocks(source string) []CodeBlock {
	var blocks []CodeBlock
	for _, m := range codeBlockRegexp.FindAllStringSubmatch(source, -1) {
		blocks = append(blocks, CodeBlock{Lang: m[1], Body: m[2], Raw: m[0]})
	}
	return blocks
}

// StripCodeBlocks removes every fenced codeblock from source. Scanners use
// it so that mentions inside code are not resolved.
func StripCodeBlocks(source string) string {
	return codeBlockRegexp.ReplaceAllString(source, "")
}
