// SPDX-License-Identifier: MIT

// Package mover re-sends messages through a channel webhook so they keep the
// author's name and avatar, used by the moderation move commands.
package mover

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// WebhookName identifies the webhook the bot manages in each channel.
const WebhookName = "Wisp Moderator"

// GetOrCreateWebhook returns the bot's webhook in a channel, creating it on
// first use. Webhooks without a token are useless to us and get replaced.
func GetOrCreateWebhook(s *discordgo.Session, channelID string) (*discordgo.Webhook, error) {
	webhooks, err := s.ChannelWebhooks(channelID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	for _, webhook := range webhooks {
		if webhook.Name != WebhookName {
			continue
		}
		if webhook.Token == "" {
			if err := s.WebhookDelete(webhook.ID); err != nil {
				return nil, fmt.Errorf("delete tokenless webhook: %w", err)
			}
			continue
		}
		return webhook, nil
	}
	webhook, err := s.WebhookCreate(channelID, WebhookName, "")
	if err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	return webhook, nil
}
