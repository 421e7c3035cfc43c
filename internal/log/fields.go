// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldMessageID = "message_id"
	FieldChannelID = "channel_id"
	FieldGuildID   = "guild_id"
	FieldUserID    = "user_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// GitHub fields
	FieldOwner  = "owner"
	FieldRepo   = "repo"
	FieldNumber = "number"
	FieldKind   = "kind"

	// Cache fields
	FieldCacheKey = "cache_key"
)
