// SPDX-License-Identifier: MIT

package mover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/log"
)

// MaxAttachmentSize caps re-uploaded attachments at 64 MiB.
const MaxAttachmentSize = 67_108_864

var httpClient = &http.Client{}

// fetchFiles re-downloads a message's attachments so the webhook can upload
// them again. Oversized attachments are skipped and counted.
func fetchFiles(ctx context.Context, attachments []*discordgo.MessageAttachment) ([]*discordgo.File, int) {
	logger := log.WithComponentFromContext(ctx, "mover")
	var files []*discordgo.File
	skipped := 0
	for _, a := range attachments {
		if a.Size > MaxAttachmentSize {
			skipped++
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
		if err != nil {
			skipped++
			continue
		}
		resp, err := httpClient.Do(req)
		if err != nil || resp.StatusCode != http.StatusOK {
			if err == nil {
				resp.Body.Close()
			}
			logger.Warn().Err(err).Str("attachment", a.Filename).Msg("attachment download failed")
			skipped++
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, MaxAttachmentSize))
		resp.Body.Close()
		if err != nil {
			skipped++
			continue
		}
		files = append(files, &discordgo.File{
			Name:        a.Filename,
			ContentType: a.ContentType,
			Reader:      bytes.NewReader(body),
		})
	}
	return files, skipped
}

// Moved describes the webhook message a move produced.
type Moved struct {
	Message *discordgo.Message
	// ChannelID is where the message ended up: the target channel, or the
	// new thread for forum moves.
	ChannelID string
}

// MoveMessage re-sends m through webhook and deletes the original. threadID
// targets an existing thread; threadName creates a forum post instead.
func MoveMessage(
	ctx context.Context,
	s *discordgo.Session,
	webhook *discordgo.Webhook,
	m *discordgo.Message,
	executorID, threadID, threadName string,
) (*Moved, error) {
	files, skipped := fetchFiles(ctx, m.Attachments)

	var subtext string
	if priorAuthor := ExtractAuthorID(m.Content); priorAuthor != "" && m.WebhookID != "" {
		// Already a moved message: extend its move mark instead of
		// stacking a second subtext.
		lines := splitSubtext(m.Content)
		m.Content = lines.content
		subtext = lines.subtext
		if executorID != "" {
			subtext += fmt.Sprintf(", then from %s by <@%s>",
				discordx.ChannelMention(m.ChannelID), executorID)
		}
	} else {
		subtext = NewSubtext(m, executorID, skipped).Format()
	}

	content, file := discordx.FormatOrFile(m.Content, "{}\n"+subtext)
	if file != nil {
		files = append(files, file)
		if content == "\n"+subtext {
			content = "-# Content attached\n" + subtext
		}
	}

	var embeds []*discordgo.MessageEmbed
	for _, e := range m.Embeds {
		if e.URL == "" {
			embeds = append(embeds, e)
		}
	}

	params := &discordgo.WebhookParams{
		Content:         content,
		Username:        displayName(m.Author, m.Member),
		AvatarURL:       m.Author.AvatarURL(""),
		Files:           files,
		Embeds:          embeds,
		AllowedMentions: discordx.NoMentions,
		ThreadName:      threadName,
	}

	var sent *discordgo.Message
	var err error
	if threadID != "" {
		sent, err = s.WebhookThreadExecute(webhook.ID, webhook.Token, true, threadID, params)
	} else {
		sent, err = s.WebhookExecute(webhook.ID, webhook.Token, true, params)
	}
	if err != nil {
		return nil, fmt.Errorf("send via webhook: %w", err)
	}

	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		logger := log.WithComponentFromContext(ctx, "mover")
		logger.Warn().
			Err(err).
			Str(log.FieldMessageID, m.ID).
			Msg("deleting moved message failed")
	}
	return &Moved{Message: sent, ChannelID: sent.ChannelID}, nil
}

type splitContent struct {
	content string
	subtext string
}

// splitSubtext separates a moved message's body from its final subtext line.
func splitSubtext(content string) splitContent {
	idx := strings.LastIndexByte(content, '\n')
	if idx < 0 {
		return splitContent{content: "", subtext: content}
	}
	return splitContent{content: content[:idx], subtext: content[idx+1:]}
}

func displayName(user *discordgo.User, member *discordgo.Member) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}
