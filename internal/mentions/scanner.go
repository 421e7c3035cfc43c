// SPDX-License-Identifier: MIT

package mentions

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/linker"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

var ignoredMessageTypes = map[discordgo.MessageType]bool{
	discordgo.MessageTypeThreadCreated:     true,
	discordgo.MessageTypeChannelNameChange: true,
}

// Scanner replies to entity mentions and keeps those replies in sync with
// the original messages.
type Scanner struct {
	gh      *ghclient.Client
	cfg     config.GitHubConfig
	linker  *linker.Linker
	actions *linker.Actions
	emojis  map[string]string
	logger  zerolog.Logger
}

// New wires the mention scanner. isMod gates the reply action buttons.
func New(gh *ghclient.Client, cfg config.GitHubConfig, db *badger.DB, isMod func(*discordgo.Member) bool) *Scanner {
	l := linker.New(db, "mentions")
	return &Scanner{
		gh:      gh,
		cfg:     cfg,
		linker:  l,
		actions: linker.NewActions(l, "mentioned this entity", "mentioned these entities", isMod),
		emojis:  make(map[string]string),
		logger:  log.WithComponent("mentions"),
	}
}

// LoadEmojis resolves the entity state emojis from the guild. Returns the
// names that could not be found so the bot can report them.
func (s *Scanner) LoadEmojis(session *discordgo.Session, guildID string) []string {
	emojis, err := session.GuildEmojis(guildID)
	if err != nil {
		s.logger.Error().Err(err).Msg("loading guild emojis failed")
		return emojiNames
	}
	wanted := make(map[string]bool, len(emojiNames))
	for _, name := range emojiNames {
		wanted[name] = true
	}
	for _, e := range emojis {
		if wanted[e.Name] {
			s.emojis[e.Name] = e.MessageFormat()
		}
	}
	var missing []string
	for _, name := range emojiNames {
		if s.emojis[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Process renders the mention reply for a message's content.
func (s *Scanner) Process(ctx context.Context, m *discordgo.Message) (linker.ProcessedMessage, error) {
	res := s.resolveSignatures(ctx, m.Content)

	var entities []string
	for _, ref := range res.refs {
		entity, err := s.gh.Entities.Get(ctx, ref)
		if err != nil {
			log.WithComponentFromContext(ctx, "mentions").Debug().
				Err(err).
				Str(log.FieldOwner, ref.Owner).
				Str(log.FieldRepo, ref.Repo).
				Int(log.FieldNumber, ref.Number).
				Msg("entity lookup failed")
			continue
		}
		entities = append(entities, s.formatMention(entity))
	}

	if len(strings.Join(entities, "\n")) > 2000 {
		for len(strings.Join(entities, "\n")) > 1970 { // Room for the omission note.
			entities = entities[:len(entities)-1]
		}
		entities = append(entities, "-# Some mentions were omitted")
	}

	return linker.ProcessedMessage{
		Content:   strings.Join(dedupe(entities), "\n"),
		ItemCount: len(entities),
	}, nil
}

// Reply handles a fresh message: resolve mentions and post the summary.
func (s *Scanner) Reply(ctx context.Context, session *discordgo.Session, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot || ignoredMessageTypes[m.Type] {
		return nil
	}
	if discordx.IsDM(m) {
		discordx.TryDM(session, m.Author, "You can only mention entities in the Wisp server.", false)
		return nil
	}

	start := time.Now()
	metrics.MessagesScanned.WithLabelValues("mentions").Inc()
	defer func() {
		metrics.HandlerDuration.WithLabelValues("mentions").Observe(time.Since(start).Seconds())
	}()

	res := s.resolveSignatures(ctx, m.Content)
	if res.hadURL {
		suppressEmbeds(session, m)
	}

	output, err := s.Process(ctx, m)
	if err != nil || output.ItemCount == 0 {
		return err
	}

	sent, err := session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         output.Content,
		Reference:       m.Reference(),
		Flags:           discordgo.MessageFlagsSuppressEmbeds,
		AllowedMentions: discordx.NoMentions,
		Components:      s.actions.Components(m.ID, m.Author.ID, output.ItemCount),
	})
	if err != nil {
		return err
	}
	metrics.RepliesSent.WithLabelValues("mentions").Inc()
	if err := s.linker.Link(m.ID, linker.Link{
		OriginalChannelID: m.ChannelID,
		OriginalAuthorID:  m.Author.ID,
		ReplyChannelID:    sent.ChannelID,
		ReplyID:           sent.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("linking mention reply failed")
	}
	s.actions.ScheduleRemoval(session, sent.ChannelID, sent.ID)
	return nil
}

// EditHook builds the message-edit handler. The session is needed because
// edits that introduce the first mention send a brand new reply.
func (s *Scanner) EditHook(session *discordgo.Session) linker.EditHook {
	interact := func(ctx context.Context, m *discordgo.Message) error {
		return s.Reply(ctx, session, m)
	}
	return s.linker.NewEditHook(s.Process, interact, s.actions)
}

// DeleteHook returns the message-delete handler for this scanner.
func (s *Scanner) DeleteHook() linker.DeleteHook {
	return s.linker.NewDeleteHook()
}

// Actions exposes the button handler for interaction dispatch.
func (s *Scanner) Actions() *linker.Actions {
	return s.actions
}

// suppressEmbeds hides the link previews on the original message so the
// bot's summary is the only rendering.
func suppressEmbeds(session *discordgo.Session, m *discordgo.Message) {
	flags := m.Flags | discordgo.MessageFlagsSuppressEmbeds
	_, err := session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: m.ChannelID,
		ID:      m.ID,
		Flags:   flags,
	})
	if err != nil {
		log.WithComponent("mentions").Debug().
			Err(err).
			Str(log.FieldMessageID, m.ID).
			Msg("suppressing embeds failed")
	}
}
