// SPDX-License-Identifier: MIT

package mover

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/log"
)

const (
	// CommandMove and CommandHelpPost are the context menu entries.
	CommandMove     = "Move message"
	CommandHelpPost = "Turn into #help post"

	customIDPrefix = "mover:"
)

// Mover owns the move-message interaction flows.
type Mover struct {
	helpChannelID string
	allowed       func(*discordgo.Member) bool
	logger        zerolog.Logger
}

// New builds the mover. allowed gates both commands, normally mods and
// helpers.
func New(helpChannelID string, allowed func(*discordgo.Member) bool) *Mover {
	return &Mover{
		helpChannelID: helpChannelID,
		allowed:       allowed,
		logger:        log.WithComponent("mover"),
	}
}

// Commands returns the context menu commands to register.
func (mv *Mover) Commands() []*discordgo.ApplicationCommand {
	moveType := discordgo.MessageApplicationCommand
	return []*discordgo.ApplicationCommand{
		{Name: CommandMove, Type: moveType},
		{Name: CommandHelpPost, Type: moveType},
	}
}

// Handles reports whether a component or modal interaction belongs here.
func (mv *Mover) Handles(customID string) bool {
	return strings.HasPrefix(customID, customIDPrefix)
}

// HandleCommand dispatches the two context menu commands.
func (mv *Mover) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || mv.allowed == nil || !mv.allowed(i.Member) {
		respondEphemeral(s, i, "You do not have permission to move messages.")
		return
	}
	data := i.ApplicationCommandData()
	target := data.Resolved.Messages[data.TargetID]
	if target == nil {
		respondEphemeral(s, i, "Could not resolve the target message.")
		return
	}
	target.ChannelID = i.ChannelID

	switch data.Name {
	case CommandMove:
		mv.promptChannelSelect(s, i, target)
	case CommandHelpPost:
		mv.promptHelpPostTitle(s, i, target)
	}
}

func (mv *Mover) promptChannelSelect(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.Message) {
	minValues := 1
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Select a channel to move this message to.",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType:    discordgo.ChannelSelectMenu,
							CustomID:    fmt.Sprintf("mover:select:%s:%s", target.ChannelID, target.ID),
							Placeholder: "Select a channel",
							MinValues:   &minValues,
							MaxValues:   1,
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
								discordgo.ChannelTypeGuildPublicThread,
							},
						},
					},
				},
			},
		},
	})
	if err != nil {
		mv.logger.Error().Err(err).Msg("responding with channel select failed")
	}
}

func (mv *Mover) promptHelpPostTitle(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.Message) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("mover:helppost:%s:%s", target.ChannelID, target.ID),
			Title:    "Turn into #help post",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: "title",
							Label:    "#help post title",
							Style:    discordgo.TextInputShort,
							Required: true,
						},
					},
				},
			},
		},
	})
	if err != nil {
		mv.logger.Error().Err(err).Msg("responding with title modal failed")
	}
}

// HandleComponent handles the channel select and the ghostping button.
func (mv *Mover) HandleComponent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	parts := strings.Split(data.CustomID, ":")
	if len(parts) < 2 {
		return
	}
	switch parts[1] {
	case "select":
		mv.handleChannelSelected(ctx, s, i, parts)
	case "ghostping":
		mv.handleGhostping(s, i, parts)
	}
}

func (mv *Mover) handleChannelSelected(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 4 || len(i.MessageComponentData().Values) != 1 {
		return
	}
	sourceChannelID, messageID := parts[2], parts[3]
	targetID := i.MessageComponentData().Values[0]

	if targetID == sourceChannelID {
		updateResponse(s, i, "You can't move a message to the same channel. Pick a different channel", nil)
		return
	}

	message, err := s.ChannelMessage(sourceChannelID, messageID)
	if err != nil {
		updateResponse(s, i, "The message is gone; it may have been deleted.", nil)
		return
	}
	message.ChannelID = sourceChannelID

	target, err := s.Channel(targetID)
	if err != nil {
		updateResponse(s, i, "I can't see that channel.", nil)
		return
	}
	webhookChannelID, threadID := targetID, ""
	if target.IsThread() {
		webhookChannelID, threadID = target.ParentID, targetID
	}

	webhook, err := GetOrCreateWebhook(s, webhookChannelID)
	if err != nil {
		mv.logger.Error().Err(err).Msg("webhook lookup failed")
		updateResponse(s, i, "Could not prepare the webhook for that channel.", nil)
		return
	}

	moved, err := MoveMessage(ctx, s, webhook, message, i.Member.User.ID, threadID, "")
	if err != nil {
		mv.logger.Error().Err(err).Msg("moving message failed")
		updateResponse(s, i, "Moving the message failed.", nil)
		return
	}

	authorID := message.Author.ID
	if prior := ExtractAuthorID(message.Content); prior != "" {
		authorID = prior
	}
	updateResponse(s, i,
		fmt.Sprintf("Moved the message to %s.", discordx.ChannelMention(moved.ChannelID)),
		[]discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Ghostping",
						Emoji:    &discordgo.ComponentEmoji{Name: "👻"},
						Style:    discordgo.SecondaryButton,
						CustomID: fmt.Sprintf("mover:ghostping:%s:%s", authorID, moved.ChannelID),
					},
				},
			},
		})
}

// handleGhostping pings the author in the destination channel and deletes
// the ping right away.
func (mv *Mover) handleGhostping(s *discordgo.Session, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 4 {
		return
	}
	authorID, channelID := parts[2], parts[3]

	updateResponse(s, i, fmt.Sprintf(
		"Moved the message to %s and ghostpinged <@%s>.",
		discordx.ChannelMention(channelID), authorID,
	), []discordgo.MessageComponent{})

	ping, err := s.ChannelMessageSend(channelID, fmt.Sprintf("<@%s>", authorID))
	if err != nil {
		mv.logger.Warn().Err(err).Msg("ghostping failed")
		return
	}
	if err := s.ChannelMessageDelete(channelID, ping.ID); err != nil {
		mv.logger.Warn().Err(err).Msg("deleting ghostping failed")
	}
}

// HandleModal finishes the help post flow once the title is submitted.
func (mv *Mover) HandleModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	parts := strings.Split(data.CustomID, ":")
	if len(parts) != 4 || parts[1] != "helppost" {
		return
	}
	sourceChannelID, messageID := parts[2], parts[3]

	title := ""
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == "title" {
				title = input.Value
			}
		}
	}
	if title == "" {
		respondEphemeral(s, i, "A post title is required.")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		mv.logger.Error().Err(err).Msg("deferring modal response failed")
		return
	}

	message, err := s.ChannelMessage(sourceChannelID, messageID)
	if err != nil {
		followupEphemeral(s, i, "The message is gone; it may have been deleted.")
		return
	}
	message.ChannelID = sourceChannelID

	webhook, err := GetOrCreateWebhook(s, mv.helpChannelID)
	if err != nil {
		mv.logger.Error().Err(err).Msg("webhook lookup failed")
		followupEphemeral(s, i, "Could not prepare the help channel webhook.")
		return
	}

	moved, err := MoveMessage(ctx, s, webhook, message, i.Member.User.ID, "", title)
	if err != nil {
		mv.logger.Error().Err(err).Msg("creating help post failed")
		followupEphemeral(s, i, "Moving the message failed.")
		return
	}

	// Ghostping the author in their new post.
	if ping, err := s.ChannelMessageSend(moved.ChannelID, message.Author.Mention()); err == nil {
		_ = s.ChannelMessageDelete(moved.ChannelID, ping.ID)
	}
	followupEphemeral(s, i, "Help post created: "+discordx.ChannelMention(moved.ChannelID))
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func updateResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) {
	edit := &discordgo.WebhookEdit{Content: &content}
	if components != nil {
		edit.Components = &components
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err == nil {
		_, _ = s.InteractionResponseEdit(i.Interaction, edit)
	}
}
