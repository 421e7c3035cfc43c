// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Discord attributes
	DiscordGuildKey   = "discord.guild_id"
	DiscordChannelKey = "discord.channel_id"
	DiscordMessageKey = "discord.message_id"
	DiscordUserKey    = "discord.user_id"

	// GitHub attributes
	GitHubOwnerKey  = "github.owner"
	GitHubRepoKey   = "github.repo"
	GitHubNumberKey = "github.number"
	GitHubKindKey   = "github.kind"

	// Scanner attributes
	ScannerNameKey  = "scanner.name"
	ScannerItemsKey = "scanner.items"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// MessageAttributes creates Discord message span attributes.
func MessageAttributes(guildID, channelID, messageID string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if guildID != "" {
		attrs = append(attrs, attribute.String(DiscordGuildKey, guildID))
	}
	if channelID != "" {
		attrs = append(attrs, attribute.String(DiscordChannelKey, channelID))
	}
	if messageID != "" {
		attrs = append(attrs, attribute.String(DiscordMessageKey, messageID))
	}
	return attrs
}

// EntityAttributes creates GitHub entity span attributes.
func EntityAttributes(owner, repo, kind string, number int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(GitHubOwnerKey, owner),
		attribute.String(GitHubRepoKey, repo),
		attribute.String(GitHubKindKey, kind),
		attribute.Int(GitHubNumberKey, number),
	}
}

// ScannerAttributes creates content-scanner span attributes.
func ScannerAttributes(name string, items int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ScannerNameKey, name),
		attribute.Int(ScannerItemsKey, items),
	}
}

// ErrorAttributes creates error span attributes.
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, err.Error()),
	}
}
