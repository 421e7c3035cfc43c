// SPDX-License-Identifier: MIT

package xkcd

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/linker"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

const maxEmbeds = 10

var mentionRegexp = regexp.MustCompile(`(?i)\bxkcd#(\d+)`)

// Scanner replies to xkcd mentions.
type Scanner struct {
	client  *Client
	linker  *linker.Linker
	actions *linker.Actions
	logger  zerolog.Logger
}

// New wires the xkcd mention scanner.
func New(client *Client, db *badger.DB, isMod func(*discordgo.Member) bool) *Scanner {
	l := linker.New(db, "xkcd")
	return &Scanner{
		client:  client,
		linker:  l,
		actions: linker.NewActions(l, "linked this xkcd comic", "linked these xkcd comics", isMod),
		logger:  log.WithComponent("xkcd"),
	}
}

// Process renders the embeds for every xkcd mention in a message.
func (s *Scanner) Process(ctx context.Context, m *discordgo.Message) (linker.ProcessedMessage, error) {
	var numbers []int
	seen := make(map[int]struct{})
	for _, match := range mentionRegexp.FindAllStringSubmatch(m.Content, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(numbers))
	for _, n := range numbers {
		result, err := s.client.Comics.Get(ctx, n)
		if err != nil {
			s.logger.Warn().Err(err).Int("comic", n).Msg("comic lookup failed")
			result = Result{Number: n, Failed: true}
		}
		embeds = append(embeds, ToEmbed(result))
	}
	if len(embeds) > maxEmbeds {
		omitted := &discordgo.MessageEmbed{
			Color: colorOmitted,
			Footer: &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("%d xkcd comics were omitted", len(embeds)-maxEmbeds+1),
			},
		}
		embeds = append(embeds[:maxEmbeds-1], omitted)
	}
	return linker.ProcessedMessage{Embeds: embeds, ItemCount: len(embeds)}, nil
}

// Reply handles a fresh message containing xkcd mentions.
func (s *Scanner) Reply(ctx context.Context, session *discordgo.Session, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot {
		return nil
	}

	start := time.Now()
	metrics.MessagesScanned.WithLabelValues("xkcd").Inc()
	defer func() {
		metrics.HandlerDuration.WithLabelValues("xkcd").Observe(time.Since(start).Seconds())
	}()

	output, err := s.Process(ctx, m)
	if err != nil || output.ItemCount < 1 {
		return err
	}

	sent, err := session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:          output.Embeds,
		Reference:       m.Reference(),
		AllowedMentions: discordx.NoMentions,
		Components:      s.actions.Components(m.ID, m.Author.ID, output.ItemCount),
	})
	if err != nil {
		return err
	}
	metrics.RepliesSent.WithLabelValues("xkcd").Inc()
	if err := s.linker.Link(m.ID, linker.Link{
		OriginalChannelID: m.ChannelID,
		OriginalAuthorID:  m.Author.ID,
		ReplyChannelID:    sent.ChannelID,
		ReplyID:           sent.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("linking xkcd reply failed")
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
