// SPDX-License-Identifier: MIT

package docs

import (
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/mover"
)

// CommandName is the slash command this package serves.
const CommandName = "docs"

// Command describes the /docs slash command for registration.
func Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        CommandName,
		Description: "Link a documentation page.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "section",
				Description:  "Documentation section",
				Required:     true,
				Autocomplete: true,
			},
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "page",
				Description:  "Page within the section",
				Required:     true,
				Autocomplete: true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message",
				Description: "Message to attach to the link",
			},
		},
	}
}

// HandleAutocomplete serves the section and page options.
func (sm *Sitemap) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	var current, section string
	var focusedSection bool
	for _, opt := range data.Options {
		switch opt.Name {
		case "section":
			if opt.Focused {
				focusedSection = true
				current = opt.StringValue()
			} else {
				section = opt.StringValue()
			}
		case "page":
			if opt.Focused {
				current = opt.StringValue()
			}
		}
	}

	var names []string
	if focusedSection {
		names = make([]string, 0, len(Sections))
		for name := range Sections {
			names = append(names, name)
		}
		sort.Strings(names)
	} else {
		names = sm.Pages(section)
	}
	choices := make([]discordx.AutocompleteChoice, len(names))
	for idx, name := range names {
		choices[idx] = discordx.AutocompleteChoice{Name: name, Value: name}
	}

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: discordx.GenerateAutocomplete(current, choices),
		},
	})
}

// HandleCommand resolves the link and posts it, optionally forwarding an
// accompanying message through the channel webhook so it carries the
// caller's name and avatar.
func (sm *Sitemap) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	var section, page, message string
	for _, opt := range data.Options {
		switch opt.Name {
		case "section":
			section = opt.StringValue()
		case "page":
			page = opt.StringValue()
		case "message":
			message = opt.StringValue()
		}
	}

	link, err := sm.Link(section, page)
	if err != nil {
		respond(s, i, capitalizeError(err), true)
		return
	}

	if message == "" || i.Member == nil {
		respond(s, i, link, false)
		return
	}

	webhook, err := mover.GetOrCreateWebhook(s, i.ChannelID)
	if err != nil {
		sm.logger.Warn().Err(err).Msg("webhook lookup failed")
		respond(s, i, link, false)
		return
	}
	user := i.Member.User
	name := i.Member.Nick
	if name == "" {
		name = user.GlobalName
	}
	if name == "" {
		name = user.Username
	}
	if _, err := s.WebhookExecute(webhook.ID, webhook.Token, true, &discordgo.WebhookParams{
		Content:         message + "\n" + link,
		Username:        name,
		AvatarURL:       user.AvatarURL(""),
		AllowedMentions: discordx.NoMentions,
	}); err != nil {
		respond(s, i, "Message content too long.", true)
		return
	}
	respond(s, i, "Documentation linked.", true)
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func capitalizeError(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
