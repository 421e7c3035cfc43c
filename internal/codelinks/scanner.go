// SPDX-License-Identifier: MIT

package codelinks

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/linker"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

// Scanner replies to code links with the referenced snippet.
type Scanner struct {
	gh      *ghclient.Client
	linker  *linker.Linker
	actions *linker.Actions
	logger  zerolog.Logger
}

// New wires the code link scanner.
func New(gh *ghclient.Client, db *badger.DB, isMod func(*discordgo.Member) bool) *Scanner {
	l := linker.New(db, "codelinks")
	return &Scanner{
		gh:      gh,
		linker:  l,
		actions: linker.NewActions(l, "linked this code snippet", "linked these code snippets", isMod),
		logger:  log.WithComponent("codelinks"),
	}
}

// Process renders the snippet reply for a message. An ItemCount of -1 means
// snippets were found but every one had to be omitted.
func (s *Scanner) Process(ctx context.Context, m *discordgo.Message) (linker.ProcessedMessage, error) {
	snippets := FindSnippets(ctx, s.gh, m.Content)
	if len(snippets) == 0 {
		return linker.ProcessedMessage{}, nil
	}

	blobs := make([]string, len(snippets))
	for i, snippet := range snippets {
		blobs[i] = snippet.Format(true)
	}

	// A single oversized snippet goes out as a file instead.
	if len(blobs) == 1 && len(blobs[0]) > 2000 {
		return linker.ProcessedMessage{
			Content:   snippets[0].Format(false),
			ItemCount: 1,
			Files: []*discordgo.File{{
				Name:   path.Base(snippets[0].Path),
				Reader: bytes.NewReader([]byte(snippets[0].Body)),
			}},
		}, nil
	}

	if len(strings.Join(blobs, "\n\n")) > 2000 {
		for len(strings.Join(blobs, "\n\n")) > 1970 { // Room for the omission note.
			blobs = blobs[:len(blobs)-1]
			if len(blobs) == 0 {
				return linker.ProcessedMessage{ItemCount: -1}, nil
			}
		}
		blobs = append(blobs, "-# Some snippets were omitted")
	}
	return linker.ProcessedMessage{
		Content:   strings.Join(blobs, "\n"),
		ItemCount: len(snippets),
	}, nil
}

// Reply handles a fresh message containing code links.
func (s *Scanner) Reply(ctx context.Context, session *discordgo.Session, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot {
		return nil
	}

	start := time.Now()
	metrics.MessagesScanned.WithLabelValues("codelinks").Inc()
	defer func() {
		metrics.HandlerDuration.WithLabelValues("codelinks").Observe(time.Since(start).Seconds())
	}()

	output, err := s.Process(ctx, m)
	if err != nil {
		return err
	}
	if output.ItemCount != 0 {
		suppressEmbeds(session, m)
	}
	if output.ItemCount < 1 {
		return nil
	}

	sent, err := session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         output.Content,
		Files:           output.Files,
		Reference:       m.Reference(),
		Flags:           discordgo.MessageFlagsSuppressEmbeds,
		AllowedMentions: discordx.NoMentions,
		Components:      s.actions.Components(m.ID, m.Author.ID, output.ItemCount),
	})
	if err != nil {
		return err
	}
	metrics.RepliesSent.WithLabelValues("codelinks").Inc()
	if err := s.linker.Link(m.ID, linker.Link{
		OriginalChannelID: m.ChannelID,
		OriginalAuthorID:  m.Author.ID,
		ReplyChannelID:    sent.ChannelID,
		ReplyID:           sent.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("linking snippet reply failed")
	}
	s.actions.ScheduleRemoval(session, sent.ChannelID, sent.ID)
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

func suppressEmbeds(session *discordgo.Session, m *discordgo.Message) {
	_, err := session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: m.ChannelID,
		ID:      m.ID,
		Flags:   m.Flags | discordgo.MessageFlagsSuppressEmbeds,
	})
	if err != nil {
		log.WithComponent("codelinks").Debug().
			Err(err).
			Str(log.FieldMessageID, m.ID).
			Msg("suppressing embeds failed")
	}
}
