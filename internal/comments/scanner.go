// SPDX-License-Identifier: MIT

// Package comments turns GitHub comment permalinks into Discord embeds
// showing the linked comment, review, or timeline event inline.
package comments

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/linker"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

// maxEmbeds is Discord's per-message embed cap.
const maxEmbeds = 10

var commentRegexp = regexp.MustCompile(
	`https?://(?:www\.)?github\.com/([a-zA-Z0-9-]+)/([a-zA-Z0-9\-._]+)/` +
		`(issues|discussions|pull)/(\d+)/?#(\w+?-?)(\d+)`,
)

// reactionEmojis maps reaction rollup fields to the emojis GitHub's UI
// shows. laugh is rendered as smile there, not 😆.
var reactionEmojis = [...]struct {
	emoji string
	count func(r *ghclient.Reactions) int
}{
	{"👍", func(r *ghclient.Reactions) int { return r.PlusOne }},
	{"👎", func(r *ghclient.Reactions) int { return r.MinusOne }},
	{"😄", func(r *ghclient.Reactions) int { return r.Laugh }},
	{"😕", func(r *ghclient.Reactions) int { return r.Confused }},
	{"❤️", func(r *ghclient.Reactions) int { return r.Heart }},
	{"🎉", func(r *ghclient.Reactions) int { return r.Hooray }},
	{"👀", func(r *ghclient.Reactions) int { return r.Eyes }},
	{"🚀", func(r *ghclient.Reactions) int { return r.Rocket }},
}

// figureSpace separates reaction groups; Discord collapses regular adjacent
// spaces but leaves this one alone.
const figureSpace = " "

// Scanner replies to comment permalinks with embeds.
type Scanner struct {
	gh       *ghclient.Client
	linker   *linker.Linker
	actions  *linker.Actions
	emojiFor func(*ghclient.Entity) string
	logger   zerolog.Logger
}

// New wires the comment scanner. emojiFor supplies entity state emojis.
func New(gh *ghclient.Client, db *badger.DB, isMod func(*discordgo.Member) bool, emojiFor func(*ghclient.Entity) string) *Scanner {
	l := linker.New(db, "comments")
	return &Scanner{
		gh:       gh,
		linker:   l,
		actions:  linker.NewActions(l, "linked this comment", "linked these comments", isMod),
		emojiFor: emojiFor,
		logger:   log.WithComponent("comments"),
	}
}

// findComments resolves every permalink in content, deduplicated by URL.
func (s *Scanner) findComments(ctx context.Context, content string) []*ghclient.Comment {
	var comments []*ghclient.Comment
	seen := make(map[string]bool)
	for _, m := range commentRegexp.FindAllStringSubmatch(content, -1) {
		number, err := strconv.Atoi(m[4])
		if err != nil {
			continue
		}
		id, err := strconv.ParseUint(m[6], 10, 64)
		if err != nil {
			continue
		}
		if !ghclient.SupportedCommentPrefix(m[5]) {
			continue
		}
		key := ghclient.CommentKey{
			Ref:    ghclient.Ref{Owner: m[1], Repo: m[2], Number: number},
			Prefix: m[5],
			ID:     id,
		}
		comment, err := s.gh.Comments.Get(ctx, key)
		if err != nil {
			log.WithComponentFromContext(ctx, "comments").Debug().
				Err(err).
				Str(log.FieldKind, m[5]).
				Msg("comment lookup failed")
			continue
		}
		if !seen[comment.HTMLURL] {
			seen[comment.HTMLURL] = true
			comments = append(comments, comment)
		}
	}
	return comments
}

// ToEmbed renders a comment as a Discord embed.
func (s *Scanner) ToEmbed(comment *ghclient.Comment) *discordgo.MessageEmbed {
	title := comment.Entity.Title
	if emoji := s.emojiFor(comment.Entity); emoji != "" {
		title = emoji + " " + comment.Entity.Title
	}

	kind := comment.Kind
	if kind == "" {
		kind = "Comment"
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		URL:         comment.HTMLURL,
		Description: comment.Body,
		Color:       comment.Color,
		Timestamp:   comment.CreatedAt.Format(time.RFC3339),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    comment.Author.Login,
			URL:     comment.Author.HTMLURL,
			IconURL: comment.Author.AvatarURL,
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s on %s", kind, comment.Entity.Ref),
		},
	}

	if r := comment.Reactions; r != nil {
		var formatted []string
		for _, reaction := range reactionEmojis {
			if count := reaction.count(r); count > 0 {
				formatted = append(formatted, fmt.Sprintf("%s ×%d", reaction.emoji, count))
			}
		}
		if len(formatted) > 0 {
			value := "-# " + formatted[0]
			for _, f := range formatted[1:] {
				value += " " + figureSpace + " " + f
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Value: value})
		}
	}
	return embed
}

// Process renders the embeds for a message.
func (s *Scanner) Process(ctx context.Context, m *discordgo.Message) (linker.ProcessedMessage, error) {
	comments := s.findComments(ctx, m.Content)
	embeds := make([]*discordgo.MessageEmbed, 0, len(comments))
	for _, comment := range comments {
		embeds = append(embeds, s.ToEmbed(comment))
	}
	return linker.ProcessedMessage{Embeds: embeds, ItemCount: len(embeds)}, nil
}

// Reply handles a fresh message containing comment permalinks.
func (s *Scanner) Reply(ctx context.Context, session *discordgo.Session, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot {
		return nil
	}

	start := time.Now()
	metrics.MessagesScanned.WithLabelValues("comments").Inc()
	defer func() {
		metrics.HandlerDuration.WithLabelValues("comments").Observe(time.Since(start).Seconds())
	}()

	output, err := s.Process(ctx, m)
	if err != nil || output.ItemCount == 0 {
		return err
	}

	embeds := output.Embeds
	var note string
	if len(embeds) > maxEmbeds {
		omitted := len(embeds) - maxEmbeds
		if omitted > 1 {
			note = fmt.Sprintf("%d comments were omitted", omitted)
		} else {
			note = "1 comment was omitted"
		}
		embeds = embeds[:maxEmbeds]
	}

	sent, err := session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         note,
		Embeds:          embeds,
		Reference:       m.Reference(),
		AllowedMentions: discordx.NoMentions,
		Components:      s.actions.Components(m.ID, m.Author.ID, len(embeds)),
	})
	if err != nil {
		return err
	}
	metrics.RepliesSent.WithLabelValues("comments").Inc()
	suppressOriginalEmbeds(session, m)
	if err := s.linker.Link(m.ID, linker.Link{
		OriginalChannelID: m.ChannelID,
		OriginalAuthorID:  m.Author.ID,
		ReplyChannelID:    sent.ChannelID,
		ReplyID:           sent.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("linking comment reply failed")
	}
	s.actions.ScheduleRemoval(session, sent.ChannelID, sent.ID)
	return nil
}

// EditHook builds the message-edit handler for this scanner.
func (s *Scanner) EditHook(session *discordgo.Session) linker.EditHook {
	interact := func(ctx context.Context, m *discordgo.Message) error {
		return s.Reply(ctx, session, m)
	}
	return s.linker.NewEditHook(s.Process, interact, s.actions)
}

// DeleteHook builds the message-delete handler for this scanner.
func (s *Scanner) DeleteHook() linker.DeleteHook {
	return s.linker.NewDeleteHook()
}

// Actions exposes the button handler for interaction dispatch.
func (s *Scanner) Actions() *linker.Actions {
	return s.actions
}

func suppressOriginalEmbeds(session *discordgo.Session, m *discordgo.Message) {
	_, err := session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: m.ChannelID,
		ID:      m.ID,
		Flags:   m.Flags | discordgo.MessageFlagsSuppressEmbeds,
	})
	if err != nil {
		log.WithComponent("comments").Debug().
			Err(err).
			Str(log.FieldMessageID, m.ID).
			Msg("suppressing embeds failed")
	}
}
