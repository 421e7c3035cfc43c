// SPDX-License-Identifier: MIT

// Package xkcd replies to `xkcd#N` mentions with the comic as an embed.
package xkcd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/cache"
	"github.com/wisp-term/wispbot/internal/discordx"
)

const (
	colorNotFound    = 0xE74C3C
	colorInteractive = 0xFEE75C
	colorOmitted     = 0xE67E22
)

// Comic is the subset of xkcd's info.0.json the embeds use.
type Comic struct {
	Number     int               `json:"num"`
	Day        json.Number       `json:"day"`
	Month      json.Number       `json:"month"`
	Year       json.Number       `json:"year"`
	Title      string            `json:"title"`
	Img        string            `json:"img"`
	Link       string            `json:"link"`
	Transcript string            `json:"transcript"`
	Alt        string            `json:"alt"`
	ExtraParts map[string]string `json:"extra_parts,omitempty"`
}

// URL is the comic's page on xkcd.com.
func (c Comic) URL() string {
	return fmt.Sprintf("https://xkcd.com/%d", c.Number)
}

// Result is one lookup outcome. Misses and upstream failures are cached too
// so a popular broken mention does not hammer xkcd.com.
type Result struct {
	Comic    *Comic `json:"comic,omitempty"`
	Number   int    `json:"number"`
	NotFound bool   `json:"not_found,omitempty"`
	Failed   bool   `json:"failed,omitempty"`
}

// Client fetches comics through a time-to-refresh cache.
type Client struct {
	httpc   *http.Client
	baseURL string
	Comics  *cache.TTR[int, Result]
}

// NewClient builds a Client caching lookups in store for ttr.
func NewClient(ttr time.Duration, store cache.Store) *Client {
	c := &Client{
		httpc:   &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://xkcd.com",
	}
	c.Comics = cache.NewTTR("xkcd", store, ttr, func(n int) string {
		return fmt.Sprintf("xkcd:%d", n)
	}, c.fetch)
	return c
}

func (c *Client) fetch(ctx context.Context, number int) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%d/info.0.json", c.baseURL, number), nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch xkcd %d: %w", number, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Result{Number: number, NotFound: true}, nil
	case resp.StatusCode != http.StatusOK:
		return Result{Number: number, Failed: true}, nil
	}
	var comic Comic
	if err := json.NewDecoder(resp.Body).Decode(&comic); err != nil {
		return Result{Number: number, Failed: true}, nil
	}
	return Result{Number: comic.Number, Comic: &comic}, nil
}

// ToEmbed renders one lookup result.
func ToEmbed(r Result) *discordgo.MessageEmbed {
	switch {
	case r.NotFound:
		return &discordgo.MessageEmbed{
			Color:  colorNotFound,
			Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("xkcd #%d does not exist", r.Number)},
		}
	case r.Failed || r.Comic == nil:
		return &discordgo.MessageEmbed{
			Color:  colorNotFound,
			Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Unable to fetch xkcd #%d", r.Number)},
		}
	}
	comic := r.Comic

	embed := &discordgo.MessageEmbed{
		Title: comic.Title,
		URL:   comic.URL(),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s • %s", comic.Alt, publishedOn(comic)),
		},
	}

	// Interactive comics point img at a non-image URL that 403s, so check
	// the extension instead of embedding it blindly.
	if supportedImage(comic.Img) {
		embed.Image = &discordgo.MessageEmbedImage{URL: comic.Img}
	} else if comic.Transcript != "" {
		embed.Description = comic.Transcript
	}
	if len(comic.ExtraParts) > 0 {
		embed.Color = colorInteractive
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Value: fmt.Sprintf(
				"*This is an interactive comic; [press here](%s) to view it on xkcd.com.*",
				comic.URL(),
			),
		})
	}
	if comic.Link != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Value: fmt.Sprintf("[Press here](%s) to view the image's link.", comic.Link),
		})
	}
	return embed
}

func publishedOn(c *Comic) string {
	day, _ := c.Day.Int64()
	month, _ := c.Month.Int64()
	year, _ := c.Year.Int64()
	date := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	return date.Format("January 2, 2006")
}

func supportedImage(url string) bool {
	return discordx.SupportedImageFormats[strings.ToLower(path.Ext(url))]
}
