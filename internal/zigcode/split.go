// SPDX-License-Identifier: MIT

package zigcode

import (
	"regexp"
	"strings"
)

// MessageLimit is Discord's message length cap.
const MessageLimit = 2000

var sgrRegexp = regexp.MustCompile(`\x1b\[[0-9;]+m`)

// Split breaks highlighted codeblock text into chunks that each fit in one
// Discord message. Chunks never end inside a fence: every chunk is closed
// with ``` and the next re-opens with ```ansi, carrying over the last active
// SGR style so highlighting survives the break.
func Split(code string) []string {
	if len(code) <= MessageLimit {
		return []string{code}
	}

	lines := strings.Split(code, "\n")
	var parts []string
	var part []string

	// If the part opens with a bare style line, merge it into the first
	// content line so it is not dropped by later edits.
	copyLastStyle := func() {
		if len(part) >= 3 && sgrRegexp.FindString(part[1]) == part[1] {
			style := part[1]
			part = append(part[:1], part[2:]...)
			part[1] = style + part[1]
		}
	}

	for len(lines) > 0 {
		// 4 = len("\n```"), the closing fence added below.
		if len(part) == 0 || len(strings.Join(part, "\n"))+len(lines[0])+4 < MessageLimit {
			part = append(part, lines[0])
			lines = lines[1:]
			continue
		}

		// Never end a part on a fence boundary.
		if strings.HasPrefix(part[len(part)-1], "```") {
			lines = append([]string{part[len(part)-1]}, lines...)
			part = part[:len(part)-1]
			if part[len(part)-1] == "```ansi" {
				lines = append([]string{part[len(part)-1]}, lines...)
				part = part[:len(part)-1]
			}
		}

		copyLastStyle()
		joined := strings.Join(append(part, "```"), "\n")
		parts = append(parts, joined)
		part = []string{"```ansi"}

		// Carry the last active style into the new part.
		if styles := sgrRegexp.FindAllString(joined, -1); len(styles) > 0 {
			part = append(part, styles[len(styles)-1])
		}
	}

	if len(part) > 0 {
		copyLastStyle()
		parts = append(parts, strings.Join(part, "\n"))
	}
	return parts
}
