// SPDX-License-Identifier: MIT

package zigcode

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

const (
	// MaxContent caps how much of an attached file is read (50 KiB).
	MaxContent = 51_200
	// MaxZigFileSize is the largest attachment considered at all (8 MiB).
	MaxZigFileSize = 8_388_608
	// inlineLines and inlineBytes bound what gets inlined into the reply
	// instead of re-attached.
	inlineLines = 5
	inlineBytes = 1900
)

const fileHighlightNote = `Click "View whole file" to see the highlighting.`

// Attachment is a message attachment candidate for highlighting. Fetch is
// only called for .zig files under the size cap.
type Attachment struct {
	Filename string
	Size     int
	Fetch    func(ctx context.Context) ([]byte, error)
}

// File is an attachment for the bot's reply.
type File struct {
	Name string
	Body []byte
}

// Reply holds the prepared response to a message containing Zig code:
// message-sized content chunks plus highlighted file attachments. An empty
// Reply means the message needs no response.
type Reply struct {
	Contents []string
	Files    []File
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return len(r.Contents) == 0 && len(r.Files) == 0
}

// PrepareReply inspects message content and attachments for Zig code. Short
// attached files are inlined as codeblocks; longer ones come back as .ansi
// files. Content with ```zig blocks is rewritten to highlighted ```ansi
// blocks, split to fit Discord's message limit.
func PrepareReply(ctx context.Context, content string, attachments []Attachment) (Reply, error) {
	var files []File
	for _, att := range attachments {
		if !strings.HasSuffix(att.Filename, ".zig") || att.Size > MaxZigFileSize {
			continue
		}
		data, err := att.Fetch(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("fetch attachment %s: %w", att.Filename, err)
		}
		if len(data) > MaxContent {
			data = data[:MaxContent]
		}
		if bytes.Count(data, []byte("\n")) <= inlineLines && len(data) <= inlineBytes {
			content = fmt.Sprintf("```zig\n%s```\n%s", data, content)
			continue
		}
		files = append(files, File{
			Name: att.Filename + ".ansi",
			Body: []byte(Highlight(string(data), DiscordTheme())),
		})
	}

	hasZigBlock := false
	for _, cb := range ExtractCodeBlocks(content) {
		if cb.Lang == "zig" {
			hasZigBlock = true
			break
		}
	}
	if hasZigBlock {
		code := ProcessDiscordMarkdown(content, true)
		if len(files) > 0 {
			code += "\n" + fileHighlightNote
		}
		return Reply{Contents: Split(code), Files: files}, nil
	}
	if len(files) > 0 {
		return Reply{Contents: []string{fileHighlightNote}, Files: files}, nil
	}
	return Reply{}, nil
}
