// SPDX-License-Identifier: MIT

package zigcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/linker"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

// ReplyTimeout is how long the action buttons stay on highlight replies.
// Longer than the default so authors can still delete a wall of chunks.
const ReplyTimeout = time.Minute

// Scanner replies to messages containing Zig code with ANSI-highlighted
// versions of the codeblocks and attachments.
type Scanner struct {
	httpc   *http.Client
	linker  *linker.Linker
	actions *linker.Actions
	logger  zerolog.Logger
}

// NewScanner wires the Zig codeblock scanner.
func NewScanner(db *badger.DB, isMod func(*discordgo.Member) bool) *Scanner {
	l := linker.New(db, "zigcode")
	actions := linker.NewActions(l, "sent this Zig code", "sent these Zig codeblocks", isMod)
	actions.SetTimeout(ReplyTimeout)
	return &Scanner{
		httpc:   &http.Client{Timeout: 10 * time.Second},
		linker:  l,
		actions: actions,
		logger:  log.WithComponent("zigcode"),
	}
}

// Process renders the highlighted reply parts for a message. The content is
// the final chunk of a possibly multi-message reply; earlier chunks are only
// available through Reply.
func (s *Scanner) Process(ctx context.Context, m *discordgo.Message) (linker.ProcessedMessage, error) {
	reply, err := PrepareReply(ctx, m.Content, s.attachments(m))
	if err != nil {
		return linker.ProcessedMessage{}, err
	}
	if reply.Empty() {
		return linker.ProcessedMessage{}, nil
	}

	var content string
	if len(reply.Contents) > 0 {
		content = reply.Contents[len(reply.Contents)-1]
	}
	files := make([]*discordgo.File, len(reply.Files))
	for i, f := range reply.Files {
		files[i] = &discordgo.File{Name: f.Name, Reader: bytes.NewReader(f.Body)}
	}
	return linker.ProcessedMessage{
		ItemCount: len(reply.Contents) + len(reply.Files),
		Content:   content,
		Files:     files,
	}, nil
}

// Reply handles a fresh message containing Zig code. Replies longer than one
// message go out as a chain: the first chunk references the original, the
// last one carries the files and action buttons and is the chunk tracked for
// edits and deletions.
func (s *Scanner) Reply(ctx context.Context, session *discordgo.Session, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot {
		return nil
	}

	start := time.Now()
	metrics.MessagesScanned.WithLabelValues("zigcode").Inc()
	defer func() {
		metrics.HandlerDuration.WithLabelValues("zigcode").Observe(time.Since(start).Seconds())
	}()

	reply, err := PrepareReply(ctx, m.Content, s.attachments(m))
	if err != nil {
		return err
	}
	if reply.Empty() {
		return nil
	}

	itemCount := len(reply.Contents) + len(reply.Files)
	contents := reply.Contents
	if len(contents) == 0 {
		contents = []string{""}
	}

	var last *discordgo.Message
	for i, chunk := range contents {
		send := &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: discordx.NoMentions,
		}
		if i == 0 {
			send.Reference = m.Reference()
		}
		if i == len(contents)-1 {
			for _, f := range reply.Files {
				send.Files = append(send.Files, &discordgo.File{
					Name:   f.Name,
					Reader: bytes.NewReader(f.Body),
				})
			}
			send.Components = s.actions.Components(m.ID, m.Author.ID, itemCount)
		}
		last, err = session.ChannelMessageSendComplex(m.ChannelID, send)
		if err != nil {
			return err
		}
	}
	metrics.RepliesSent.WithLabelValues("zigcode").Inc()

	if err := s.linker.Link(m.ID, linker.Link{
		OriginalChannelID: m.ChannelID,
		OriginalAuthorID:  m.Author.ID,
		ReplyChannelID:    last.ChannelID,
		ReplyID:           last.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("linking highlight reply failed")
	}
	s.actions.ScheduleRemoval(session, last.ChannelID, last.ID)
	return nil
}

// EditHook builds the message-edit handler for this scanner.
func (s *Scanner) EditHook(session *discordgo.Session) linker.EditHook {
	interact := func(ctx context.Context, m *discordgo.Message) error {
		return s.Reply(ctx, session, m)
	}
	return s.linker.NewEditHook(s.Process, interact, s.actions)
}

// DeleteHook builds the message-delete handler for this scanner.
func (s *Scanner) DeleteHook() linker.DeleteHook {
	return s.linker.NewDeleteHook()
}

// Actions exposes the button handler for interaction dispatch.
func (s *Scanner) Actions() *linker.Actions {
	return s.actions
}

func (s *Scanner) attachments(m *discordgo.Message) []Attachment {
	attachments := make([]Attachment, len(m.Attachments))
	for i, att := range m.Attachments {
		url := att.URL
		attachments[i] = Attachment{
			Filename: att.Filename,
			Size:     att.Size,
			Fetch: func(ctx context.Context) ([]byte, error) {
				return s.fetch(ctx, url)
			},
		}
	}
	return attachments
}

func (s *Scanner) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading attachment: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxContent))
}
