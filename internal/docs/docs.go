// SPDX-License-Identifier: MIT

// Package docs maintains a sitemap of the website's documentation and serves
// the /docs command.
package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/log"
)

const urlTemplate = "https://wisp-term.org/docs/%s%s"

// Sections maps a section name to its URL fragment. The "#" suffixed ones
// link to headings on a reference page rather than subpages.
var Sections = map[string]string{
	"action":      "config/keybind/reference#",
	"config":      "config/",
	"help":        "help/",
	"install":     "install/",
	"keybind":     "config/keybind/",
	"option":      "config/reference#",
	"vt-concepts": "vt/concepts/",
	"vt-control":  "vt/control/",
	"vt-csi":      "vt/csi/",
	"vt-esc":      "vt/esc/",
	"vt":          "vt/",
}

// navEntry is one node of the website's docs/nav.json.
type navEntry struct {
	Type     string     `json:"type"`
	Path     string     `json:"path"`
	Children []navEntry `json:"children"`
}

// snapshot is the on-disk form of the sitemap.
type snapshot struct {
	RefreshedAt time.Time           `json:"refreshed_at"`
	Sitemap     map[string][]string `json:"sitemap"`
}

// Sitemap resolves docs pages per section, refreshed from the website repo.
type Sitemap struct {
	gh     *ghclient.Client
	cfg    config.GitHubConfig
	path   string
	logger zerolog.Logger

	mu          sync.RWMutex
	pages       map[string][]string
	refreshedAt time.Time
}

// New builds the sitemap, loading the persisted snapshot if one exists so
// the /docs command works before the first refresh.
func New(gh *ghclient.Client, cfg config.GitHubConfig, path string) *Sitemap {
	sm := &Sitemap{
		gh:     gh,
		cfg:    cfg,
		path:   path,
		pages:  make(map[string][]string),
		logger: log.WithComponent("docs"),
	}
	if err := sm.load(); err != nil && !os.IsNotExist(err) {
		sm.logger.Warn().Err(err).Msg("loading sitemap snapshot failed")
	}
	return sm
}

func (sm *Sitemap) load() error {
	raw, err := os.ReadFile(sm.path)
	if err != nil {
		return err
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode sitemap snapshot: %w", err)
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.pages = snap.Sitemap
	sm.refreshedAt = snap.RefreshedAt
	return nil
}

func (sm *Sitemap) save() error {
	sm.mu.RLock()
	snap := snapshot{RefreshedAt: sm.refreshedAt, Sitemap: sm.pages}
	sm.mu.RUnlock()
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(sm.path, raw, 0o644)
}

// RefreshedAt reports the last successful refresh.
func (sm *Sitemap) RefreshedAt() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.refreshedAt
}

func (sm *Sitemap) file(ctx context.Context, path string) (string, error) {
	return sm.gh.Contents.Get(ctx, ghclient.ContentKey{
		Owner: sm.cfg.Org,
		Repo:  sm.cfg.Repos["web"],
		Rev:   "main",
		Path:  path,
	})
}

// Refresh rebuilds the sitemap from the website repo and persists it.
func (sm *Sitemap) Refresh(ctx context.Context) error {
	navRaw, err := sm.file(ctx, "docs/nav.json")
	if err != nil {
		return fmt.Errorf("fetch nav.json: %w", err)
	}
	var nav struct {
		Items []navEntry `json:"items"`
	}
	if err := json.Unmarshal([]byte(navRaw), &nav); err != nil {
		return fmt.Errorf("decode nav.json: %w", err)
	}

	pages := make(map[string][]string)
	for _, entry := range nav.Items {
		if entry.Type != "folder" {
			continue
		}
		loadChildren(pages, strings.TrimLeft(entry.Path, "/"), entry.Children)
	}

	// Config options and keybind actions come from "## " headings on the
	// reference pages.
	for key, refPath := range map[string]string{
		"option": "reference.mdx",
		"action": "keybind/reference.mdx",
	} {
		content, err := sm.file(ctx, "docs/config/"+refPath)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", refPath, err)
		}
		var headings []string
		for _, line := range strings.Split(content, "\n") {
			if after, ok := strings.CutPrefix(line, "## "); ok {
				headings = append(headings, strings.Trim(after, "`"))
			}
		}
		pages[key] = headings
	}

	applyAdjustments(pages)

	sm.mu.Lock()
	sm.pages = pages
	sm.refreshedAt = time.Now()
	sm.mu.Unlock()

	if err := sm.save(); err != nil {
		sm.logger.Warn().Err(err).Msg("persisting sitemap failed")
	}
	sm.logger.Info().Int("sections", len(pages)).Msg("sitemap refreshed")
	return nil
}

// applyAdjustments fixes up the raw navigation: the keybind section lives
// under config in the nav tree, and a few nav entries are not real docs
// pages.
func applyAdjustments(pages map[string][]string) {
	pages["install"] = remove(pages["install"], "release-notes")
	if kb, ok := pages["config-keybind"]; ok {
		pages["keybind"] = kb
		delete(pages, "config-keybind")
	}
	delete(pages, "install-release-notes")
	for section := range Sections {
		if sub, ok := strings.CutPrefix(section, "vt-"); ok {
			pages["vt"] = remove(pages["vt"], sub)
		}
	}
}

func loadChildren(pages map[string][]string, path string, children []navEntry) {
	pages[path] = []string{}
	for _, item := range children {
		page := strings.TrimLeft(item.Path, "/")
		if page == "" {
			page = "overview"
		}
		pages[path] = append(pages[path], page)
		if item.Type == "folder" {
			loadChildren(pages, path+"-"+page, item.Children)
		}
	}
}

func remove(s []string, v string) []string {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// Pages returns the known pages of a section.
func (sm *Sitemap) Pages(section string) []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.pages[section])
}

// Link resolves a docs URL, validating both the section and the page.
func (sm *Sitemap) Link(section, page string) (string, error) {
	fragment, ok := Sections[section]
	if !ok {
		return "", fmt.Errorf("invalid section %q", section)
	}
	sm.mu.RLock()
	known := slices.Contains(sm.pages[section], page)
	sm.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("invalid page %q", page)
	}
	if page == "overview" {
		page = ""
	}
	return fmt.Sprintf(urlTemplate, fragment, page), nil
}

// Run refreshes the sitemap immediately and then on every interval tick.
func (sm *Sitemap) Run(ctx context.Context, interval time.Duration, onRefresh func(time.Time)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := sm.Refresh(ctx); err != nil {
			sm.logger.Error().Err(err).Msg("sitemap refresh failed")
		} else if onRefresh != nil {
			onRefresh(sm.RefreshedAt())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
