// SPDX-License-Identifier: MIT

package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/docs"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
	"github.com/wisp-term/wispbot/internal/mover"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.reporter.SetLoggedIn(time.Now())
	b.logger.Info().
		Str("user", r.User.String()).
		Int("guilds", len(r.Guilds)).
		Msg("logged in")

	missing := b.mentions.LoadEmojis(s, b.cfg.GuildID)
	if len(missing) > 0 {
		b.logger.Warn().Strs("emojis", missing).Msg("guild emojis missing")
		if b.cfg.LogChannelID != "" {
			msg := fmt.Sprintf(
				"Failed to load the following emojis: `%s`",
				strings.Join(missing, "`, `"),
			)
			if _, err := s.ChannelMessageSend(b.cfg.LogChannelID, msg); err != nil {
				b.logger.Warn().Err(err).Msg("reporting missing emojis failed")
			}
		}
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	ctx := b.messageContext(m.Message)

	if !m.Author.Bot {
		if discordx.IsDM(m.Message) {
			b.handleDM(ctx, s, m.Message)
			return
		}
		if strings.TrimSpace(m.Content) == "!sync" {
			b.handleSync(s, m.Message)
			return
		}
	}

	deleted, err := b.filters.Check(s, m.Message)
	if err != nil {
		b.captureError(ctx, err, "filters", m.Message)
	}
	if deleted {
		return
	}

	if m.Author.Bot || (m.Type != discordgo.MessageTypeDefault && m.Type != discordgo.MessageTypeReply) {
		return
	}

	for _, sc := range b.scanners {
		if err := sc.Reply(ctx, s, m.Message); err != nil {
			b.captureError(ctx, err, sc.name, m.Message)
		}
	}
}

func (b *Bot) handleDM(ctx context.Context, s *discordgo.Session, m *discordgo.Message) {
	switch normalizeDM(m.Content) {
	case "status":
		b.reporter.Report(ctx, s, m, b.isMod)
	case "ping":
		if _, err := s.ChannelMessageSend(m.ChannelID, "pong"); err != nil {
			b.logger.Warn().Err(err).Msg("pong failed")
		}
	}
}

// handleSync re-registers the guild commands and refreshes the docs sitemap
// on demand, mods only.
func (b *Bot) handleSync(s *discordgo.Session, m *discordgo.Message) {
	if !b.isMod(m.Member) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := b.sitemap.Refresh(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("sitemap refresh failed during sync")
	} else {
		b.reporter.SetSitemapRefresh(b.sitemap.RefreshedAt())
	}
	if _, err := s.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, b.Commands()); err != nil {
		b.logger.Error().Err(err).Msg("command sync failed")
		discordx.TryDM(s, m.Author, "Command sync failed.", false)
		return
	}
	discordx.TryDM(s, m.Author, "Command tree synced.", false)
}

func (b *Bot) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	ctx := b.messageContext(m.Message)

	if deleted, err := b.filters.Check(s, m.Message); err != nil {
		b.captureError(ctx, err, "filters", m.Message)
	} else if deleted {
		return
	}

	before := m.BeforeUpdate
	if before == nil {
		// Not in the state cache; an empty before still lets the hooks
		// reconcile against the stored link.
		before = &discordgo.Message{ID: m.ID, ChannelID: m.ChannelID, Author: m.Author}
	}
	for _, hook := range b.editHooks {
		hook(ctx, s, before, m.Message)
	}
}

func (b *Bot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	ctx := b.messageContext(m.Message)
	for _, sc := range b.scanners {
		sc.DeleteHook()(ctx, s, m.Message)
	}
}

func (b *Bot) onThreadUpdate(s *discordgo.Session, t *discordgo.ThreadUpdate) {
	b.autoclose.HandleThreadUpdate(s, t)
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	if i.GuildID != "" {
		ctx = log.ContextWithGuildID(ctx, i.GuildID)
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case docs.CommandName:
			b.sitemap.HandleCommand(s, i)
		case mover.CommandMove, mover.CommandHelpPost:
			b.mover.HandleCommand(s, i)
		}
	case discordgo.InteractionApplicationCommandAutocomplete:
		if i.ApplicationCommandData().Name == docs.CommandName {
			b.sitemap.HandleAutocomplete(s, i)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if b.mover.Handles(customID) {
			b.mover.HandleComponent(ctx, s, i)
			return
		}
		for _, sc := range b.scanners {
			if sc.Actions().Handles(customID) {
				sc.Actions().HandleInteraction(s, i)
				return
			}
		}
	case discordgo.InteractionModalSubmit:
		if b.mover.Handles(i.ModalSubmitData().CustomID) {
			b.mover.HandleModal(ctx, s, i)
		}
	}
}

func (b *Bot) messageContext(m *discordgo.Message) context.Context {
	ctx := log.ContextWithMessageID(context.Background(), m.ID)
	if m.GuildID != "" {
		ctx = log.ContextWithGuildID(ctx, m.GuildID)
	}
	return ctx
}

func (b *Bot) captureError(ctx context.Context, err error, component string, m *discordgo.Message) {
	sentry.CaptureException(err)
	metrics.DiscordErrors.WithLabelValues(component).Inc()
	log.WithComponentFromContext(ctx, component).
		Error().
		Err(err).
		Str(log.FieldChannelID, m.ChannelID).
		Msg("handling message failed")
}
