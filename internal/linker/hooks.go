// SPDX-License-Identifier: MIT

package linker

import (
	"context"
	"reflect"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/log"
)

// ProcessedMessage is a scanner's rendering of a user message: the reply
// content plus how many items (mentions, snippets, embeds) were found. A
// negative ItemCount signals that items were found but all had to be
// omitted.
type ProcessedMessage struct {
	ItemCount int
	Content   string
	Files     []*discordgo.File
	Embeds    []*discordgo.MessageEmbed
}

// Equal compares the reply-visible parts of two processed messages.
func (p ProcessedMessage) Equal(other ProcessedMessage) bool {
	return p.ItemCount == other.ItemCount &&
		p.Content == other.Content &&
		len(p.Files) == len(other.Files) &&
		reflect.DeepEqual(p.Embeds, other.Embeds)
}

// Processor renders a message into reply parts.
type Processor func(ctx context.Context, m *discordgo.Message) (ProcessedMessage, error)

// Interactor handles a message from scratch: process it, send the reply,
// link it.
type Interactor func(ctx context.Context, m *discordgo.Message) error

// EditHook reacts to edits of the original message.
type EditHook func(ctx context.Context, s *discordgo.Session, before, after *discordgo.Message)

// DeleteHook reacts to deletions of either side of a link.
type DeleteHook func(ctx context.Context, s *discordgo.Session, m *discordgo.Message)

// NewEditHook builds the edit handler for one scanner: re-process the edited
// message and update, delete, or create the reply accordingly.
func (l *Linker) NewEditHook(process Processor, interact Interactor, actions *Actions) EditHook {
	return func(ctx context.Context, s *discordgo.Session, before, after *discordgo.Message) {
		logger := log.WithComponentFromContext(ctx, "linker")
		if before.Content == after.Content {
			return
		}
		if Expired(before.ID) {
			l.Unlink(before.ID)
			return
		}

		oldOutput, oldErr := process(ctx, before)
		newOutput, newErr := process(ctx, after)
		if oldErr == nil && newErr == nil && oldOutput.Equal(newOutput) {
			return
		}

		link, ok := l.Get(before.ID)
		if !ok {
			if l.IsFrozen(before.ID) {
				return
			}
			if oldOutput.ItemCount > 0 {
				// The link was dropped at some point, most likely when
				// the reply was deleted.
				return
			}
			// There were no items before; treat this as a new message.
			if err := interact(ctx, after); err != nil {
				logger.Warn().Err(err).Msg("reprocessing edited message failed")
			}
			return
		}

		if Expired(link.ReplyID) {
			l.Unlink(before.ID)
			l.Unfreeze(before.ID)
			return
		}
		if l.IsFrozen(before.ID) {
			return
		}

		if newOutput.ItemCount <= 0 {
			// Everything was edited out.
			l.Unlink(before.ID)
			if err := s.ChannelMessageDelete(link.ReplyChannelID, link.ReplyID); err != nil {
				logger.Warn().Err(err).Msg("deleting stale reply failed")
			}
			return
		}

		flags := discordgo.MessageFlagsSuppressEmbeds
		if len(newOutput.Embeds) > 0 {
			flags = 0
		}
		edit := &discordgo.MessageEdit{
			Channel:         link.ReplyChannelID,
			ID:              link.ReplyID,
			Content:         &newOutput.Content,
			Embeds:          &newOutput.Embeds,
			Files:           newOutput.Files,
			Components:      componentsPtr(actions.Components(after.ID, after.Author.ID, newOutput.ItemCount)),
			Flags:           flags,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}
		if _, err := s.ChannelMessageEditComplex(edit); err != nil {
			logger.Warn().Err(err).Msg("editing reply failed")
			return
		}
		actions.ScheduleRemoval(s, link.ReplyChannelID, link.ReplyID)
	}
}

// NewDeleteHook builds the delete handler for one scanner. Reply deletions
// unlink; original deletions take the reply down with them.
func (l *Linker) NewDeleteHook() DeleteHook {
	return func(ctx context.Context, s *discordgo.Session, m *discordgo.Message) {
		if originalID, ok := l.OriginalOf(m.ID); ok {
			l.Unlink(originalID)
			l.Unfreeze(originalID)
		} else if link, ok := l.Get(m.ID); ok && !l.IsFrozen(m.ID) {
			if Expired(m.ID) {
				l.Unlink(m.ID)
			} else if err := s.ChannelMessageDelete(link.ReplyChannelID, link.ReplyID); err != nil {
				// The reply deletion triggers this hook again through
				// the gateway, which unlinks via the reverse lookup.
				logger := log.WithComponentFromContext(ctx, "linker")
				logger.Warn().Err(err).Msg("deleting linked reply failed")
			}
		}
		l.Unfreeze(m.ID)
	}
}

func componentsPtr(components []discordgo.MessageComponent) *[]discordgo.MessageComponent {
	return &components
}
