// SPDX-License-Identifier: MIT

// Package bot owns the Discord session: event handler registration, slash
// command setup, and the background loops that keep the guild tidy.
package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wisp-term/wispbot/internal/activity"
	"github.com/wisp-term/wispbot/internal/autoclose"
	"github.com/wisp-term/wispbot/internal/cache"
	"github.com/wisp-term/wispbot/internal/codelinks"
	"github.com/wisp-term/wispbot/internal/comments"
	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/docs"
	"github.com/wisp-term/wispbot/internal/filters"
	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/linker"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/mentions"
	"github.com/wisp-term/wispbot/internal/mover"
	"github.com/wisp-term/wispbot/internal/status"
	"github.com/wisp-term/wispbot/internal/xkcd"
	"github.com/wisp-term/wispbot/internal/zigcode"
)

// SitemapRefreshInterval is how often the docs sitemap is rebuilt from the
// website repo.
const SitemapRefreshInterval = 12 * time.Hour

// scanner is the shape every message scanner shares: produce a linked reply
// and mirror edits and deletions of the original message.
type scanner interface {
	Reply(ctx context.Context, s *discordgo.Session, m *discordgo.Message) error
	EditHook(s *discordgo.Session) linker.EditHook
	DeleteHook() linker.DeleteHook
	Actions() *linker.Actions
}

type namedScanner struct {
	name string
	scanner
}

// Bot wires the Discord session to the scanners, filters, and commands.
type Bot struct {
	cfg     config.DiscordConfig
	session *discordgo.Session

	filters   *filters.Checker
	mentions  *mentions.Scanner
	scanners  []namedScanner
	editHooks []linker.EditHook

	mover     *mover.Mover
	sitemap   *docs.Sitemap
	reporter  *status.Reporter
	autoclose *autoclose.Scanner

	isMod  func(*discordgo.Member) bool
	logger zerolog.Logger
}

// New assembles the bot and its session. The session is not opened yet;
// call Start.
func New(cfg *config.Config, gh *ghclient.Client, db *badger.DB, store cache.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	// Keep recent messages cached so edit events carry their before state.
	session.State.MaxMessageCount = 2048

	isMod := memberHasRole(cfg.Discord.ModRoleID)
	isStaff := memberHasAnyRole(cfg.Discord.ModRoleID, cfg.Discord.HelperRoleID)

	mentionScanner := mentions.New(gh, cfg.GitHub, db, isMod)
	autocloser := autoclose.New(cfg.Discord, cfg.Autoclose)

	b := &Bot{
		cfg:      cfg.Discord,
		session:  session,
		filters:  filters.New(cfg.Discord),
		mentions: mentionScanner,
		scanners: []namedScanner{
			{"mentions", mentionScanner},
			{"comments", comments.New(gh, db, isMod, mentionScanner.EmojiFor)},
			{"codelinks", codelinks.New(gh, db, isMod)},
			{"xkcd", xkcd.New(xkcd.NewClient(cfg.Cache.XKCDTTR, store), db, isMod)},
			{"zigcode", zigcode.NewScanner(db, isMod)},
		},
		mover:     mover.New(cfg.Discord.HelpChannelID, isStaff),
		sitemap:   docs.New(gh, cfg.GitHub, filepath.Join(cfg.DataDir, "sitemap.json")),
		autoclose: autocloser,
		isMod:     isMod,
		logger:    log.WithComponent("bot"),
	}
	b.reporter = status.NewReporter(gh, autocloser, cfg.Discord.HelpChannelID)
	for _, sc := range b.scanners {
		b.editHooks = append(b.editHooks, sc.EditHook(session))
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onMessageUpdate)
	session.AddHandler(b.onMessageDelete)
	session.AddHandler(b.onThreadUpdate)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Session exposes the underlying Discord session for health checks.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Reporter exposes the status reporter so startup code can record events.
func (b *Bot) Reporter() *status.Reporter {
	return b.reporter
}

// Commands returns every application command the bot registers.
func (b *Bot) Commands() []*discordgo.ApplicationCommand {
	return append(b.mover.Commands(), docs.Command())
}

// Start opens the gateway connection and registers the guild commands.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway: %w", err)
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, b.Commands()); err != nil {
		_ = b.session.Close()
		return fmt.Errorf("registering commands: %w", err)
	}
	return nil
}

// Run drives the background loops until ctx is done, then closes the
// session. Loop errors other than the shutdown cancellation are returned.
func (b *Bot) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return activity.Run(ctx, b.session) })
	g.Go(func() error { return b.autoclose.Run(ctx, b.session) })
	g.Go(func() error {
		return b.sitemap.Run(ctx, SitemapRefreshInterval, b.reporter.SetSitemapRefresh)
	})
	err := g.Wait()

	if closeErr := b.session.Close(); closeErr != nil {
		b.logger.Warn().Err(closeErr).Msg("closing gateway failed")
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func memberHasRole(roleID string) func(*discordgo.Member) bool {
	return func(m *discordgo.Member) bool {
		return m != nil && roleID != "" && slices.Contains(m.Roles, roleID)
	}
}

func memberHasAnyRole(roleIDs ...string) func(*discordgo.Member) bool {
	return func(m *discordgo.Member) bool {
		if m == nil {
			return false
		}
		for _, id := range roleIDs {
			if id != "" && slices.Contains(m.Roles, id) {
				return true
			}
		}
		return false
	}
}

func normalizeDM(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}
