// SPDX-License-Identifier: MIT

// Package webhookfeed turns GitHub webhook deliveries into feed-channel
// embeds.
package webhookfeed

import (
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/discordx"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

const (
	colorOpened   = 0x2ECC71
	colorClosed   = 0xE74C3C
	colorMerged   = 0x9B59B6
	colorNeutral  = 0x3498DB
	colorAnswered = 0xF1C40F
)

// Handler validates and dispatches GitHub webhook deliveries.
type Handler struct {
	secret        []byte
	feedChannelID string
	session       *discordgo.Session
	logger        zerolog.Logger
}

func New(secret, feedChannelID string, session *discordgo.Session) *Handler {
	return &Handler{
		secret:        []byte(secret),
		feedChannelID: feedChannelID,
		session:       session,
		logger:        log.WithComponent("webhookfeed"),
	}
}

// ServeHTTP implements POST /webhooks/github.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		metrics.WebhookRejected.WithLabelValues("signature").Inc()
		h.logger.Warn().Err(err).Msg("webhook signature validation failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
	eventType := github.WebHookType(r)
	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		metrics.WebhookRejected.WithLabelValues("payload").Inc()
		http.Error(w, "unparseable payload", http.StatusBadRequest)
		return
	}

	embed, action := h.toEmbed(event)
	metrics.WebhookEvents.WithLabelValues(eventType, action).Inc()
	if embed == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if _, err := h.session.ChannelMessageSendEmbed(h.feedChannelID, embed); err != nil {
		h.logger.Error().Err(err).Msg("posting feed embed failed")
		http.Error(w, "delivery failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// toEmbed renders the events the feed tracks; everything else returns nil.
func (h *Handler) toEmbed(event any) (*discordgo.MessageEmbed, string) {
	switch e := event.(type) {
	case *github.IssuesEvent:
		action := e.GetAction()
		switch action {
		case "opened", "closed", "reopened":
			color := colorOpened
			if action == "closed" {
				color = colorClosed
			}
			return embed(
				fmt.Sprintf("Issue %s: #%d %s", action, e.GetIssue().GetNumber(), e.GetIssue().GetTitle()),
				e.GetIssue().GetHTMLURL(), e.GetSender(), color,
			), action
		}
		return nil, action

	case *github.PullRequestEvent:
		action := e.GetAction()
		pr := e.GetPullRequest()
		switch action {
		case "opened":
			return embed(
				fmt.Sprintf("PR opened: #%d %s", pr.GetNumber(), pr.GetTitle()),
				pr.GetHTMLURL(), e.GetSender(), colorOpened,
			), action
		case "closed":
			verb, color := "closed", colorClosed
			if pr.GetMerged() {
				verb, color = "merged", colorMerged
				action = "merged"
			}
			return embed(
				fmt.Sprintf("PR %s: #%d %s", verb, pr.GetNumber(), pr.GetTitle()),
				pr.GetHTMLURL(), e.GetSender(), color,
			), action
		}
		return nil, action

	case *github.DiscussionEvent:
		action := e.GetAction()
		d := e.GetDiscussion()
		switch action {
		case "created":
			return embed(
				fmt.Sprintf("Discussion created: #%d %s", d.GetNumber(), d.GetTitle()),
				d.GetHTMLURL(), e.GetSender(), colorNeutral,
			), action
		case "answered":
			return embed(
				fmt.Sprintf("Discussion answered: #%d %s", d.GetNumber(), d.GetTitle()),
				d.GetHTMLURL(), e.GetSender(), colorAnswered,
			), action
		}
		return nil, action
	}
	return nil, "ignored"
}

func embed(title, url string, sender *github.User, color int) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: discordx.Truncate(title, 256),
		URL:   url,
		Color: color,
	}
	if sender != nil {
		e.Author = &discordgo.MessageEmbedAuthor{
			Name:    sender.GetLogin(),
			URL:     sender.GetHTMLURL(),
			IconURL: sender.GetAvatarURL(),
		}
	}
	return e
}
