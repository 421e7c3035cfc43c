// SPDX-License-Identifier: MIT

// Package log provides structured logging utilities.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	messageIDKey ctxKey = "message_id"
	guildIDKey   ctxKey = "guild_id"
)

// ContextWithRequestID stores the provided request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithMessageID stores the Discord message ID being processed.
func ContextWithMessageID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, messageIDKey, id)
}

// ContextWithGuildID stores the Discord guild ID being processed.
func ContextWithGuildID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, guildIDKey, id)
}

// RequestIDFromContext extracts the request ID from context if present.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDKey)
}

// MessageIDFromContext extracts the message ID from context if present.
func MessageIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, messageIDKey)
}

// GuildIDFromContext extracts the guild ID from context if present.
func GuildIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, guildIDKey)
}

func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches the supplied logger with correlation fields from ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	builder := logger.With()
	added := false
	if rid := RequestIDFromContext(ctx); rid != "" {
		builder = builder.Str(FieldRequestID, rid)
		added = true
	}
	if mid := MessageIDFromContext(ctx); mid != "" {
		builder = builder.Str(FieldMessageID, mid)
		added = true
	}
	if gid := GuildIDFromContext(ctx); gid != "" {
		builder = builder.Str(FieldGuildID, gid)
		added = true
	}
	if !added {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext returns a logger annotated with the component name
// and enriched with correlation fields from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
