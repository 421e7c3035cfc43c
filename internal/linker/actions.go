// SPDX-License-Identifier: MIT

package linker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/log"
)

// ViewTimeout is how long reply action buttons stay attached.
const ViewTimeout = 30 * time.Second

// Actions renders and handles the Delete/Freeze buttons attached to a
// scanner's replies. Only the original author and moderators may use them.
type Actions struct {
	linker         *Linker
	actionSingular string
	actionPlural   string
	isMod          func(member *discordgo.Member) bool
	timeout        time.Duration
}

// NewActions wires button handling for one scanner. The action strings
// describe what the user did, e.g. "linked this code snippet".
func NewActions(l *Linker, singular, plural string, isMod func(*discordgo.Member) bool) *Actions {
	return &Actions{
		linker:         l,
		actionSingular: singular,
		actionPlural:   plural,
		isMod:          isMod,
		timeout:        ViewTimeout,
	}
}

// SetTimeout overrides how long the action buttons stay attached to a reply.
func (a *Actions) SetTimeout(d time.Duration) {
	a.timeout = d
}

func (a *Actions) customID(verb, originalID, authorID string, itemCount int) string {
	return fmt.Sprintf("linker:%s:%s:%s:%s:%d", a.linker.name, verb, originalID, authorID, itemCount)
}

// Components builds the action row for a fresh reply.
func (a *Actions) Components(originalID, authorID string, itemCount int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Delete",
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
					Style:    discordgo.SecondaryButton,
					CustomID: a.customID("delete", originalID, authorID, itemCount),
				},
				discordgo.Button{
					Label:    "Freeze",
					Emoji:    &discordgo.ComponentEmoji{Name: "❄️"},
					Style:    discordgo.SecondaryButton,
					CustomID: a.customID("freeze", originalID, authorID, itemCount),
				},
			},
		},
	}
}

// Handles reports whether the interaction belongs to this scanner's buttons.
func (a *Actions) Handles(customID string) bool {
	return strings.HasPrefix(customID, "linker:"+a.linker.name+":")
}

// HandleInteraction executes a button press.
func (a *Actions) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	logger := log.WithComponent("linker")
	parts := strings.Split(i.MessageComponentData().CustomID, ":")
	if len(parts) != 6 {
		return
	}
	verb, originalID, authorID := parts[2], parts[3], parts[4]
	itemCount, _ := strconv.Atoi(parts[5])

	if i.Member == nil || (i.Member.User.ID != authorID && !a.isMod(i.Member)) {
		action := map[string]string{"delete": "remove", "freeze": "freeze"}[verb]
		did := a.actionSingular
		if itemCount != 1 {
			did = a.actionPlural
		}
		respondEphemeral(s, i, fmt.Sprintf(
			"Only the person who %s can %s this message.", did, action,
		))
		return
	}

	switch verb {
	case "delete":
		if err := s.ChannelMessageDelete(i.ChannelID, i.Message.ID); err != nil {
			logger.Warn().Err(err).Msg("deleting reply via button failed")
		}
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			logger.Debug().Err(err).Msg("interaction ack failed")
		}
	case "freeze":
		a.linker.Freeze(originalID)
		// Strip the buttons so freeze cannot be pressed twice.
		empty := []discordgo.MessageComponent{}
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    i.Message.Content,
				Embeds:     i.Message.Embeds,
				Components: empty,
			},
		}); err != nil {
			logger.Warn().Err(err).Msg("freeze response failed")
			return
		}
		followupEphemeral(s, i,
			"Message frozen. I will no longer react to"+
				" what happens to your original message.")
	}
}

// ScheduleRemoval strips the action buttons after the view timeout.
func (a *Actions) ScheduleRemoval(s *discordgo.Session, channelID, messageID string) {
	go func() {
		time.Sleep(a.timeout)
		empty := []discordgo.MessageComponent{}
		_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel:    channelID,
			ID:         messageID,
			Components: &empty,
		})
		if err != nil {
			logger := log.WithComponent("linker")
			logger.Debug().
				Err(err).
				Str(log.FieldMessageID, messageID).
				Msg("removing action buttons failed")
		}
	}()
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger := log.WithComponent("linker")
		logger.Debug().Err(err).Msg("ephemeral response failed")
	}
}

func followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		logger := log.WithComponent("linker")
		logger.Debug().Err(err).Msg("ephemeral followup failed")
	}
}
