// SPDX-License-Identifier: MIT

package xkcd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisp-term/wispbot/internal/cache"
)

const comicJSON = `{
	"num": 927, "day": "20", "month": "7", "year": "2011",
	"title": "Standards", "alt": "Fortunately, the charging one has been solved.",
	"img": "https://imgs.xkcd.com/comics/standards.png",
	"link": "", "transcript": "SITUATION: there are 14 competing standards."
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient(12*time.Hour, cache.NewMemoryStore(time.Minute))
	c.baseURL = server.URL
	return c
}

func TestFetchComic(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/927/info.0.json", r.URL.Path)
		fmt.Fprint(w, comicJSON)
	}))

	result, err := c.Comics.Get(context.Background(), 927)
	require.NoError(t, err)
	require.NotNil(t, result.Comic)
	assert.Equal(t, "Standards", result.Comic.Title)
	assert.Equal(t, "https://xkcd.com/927", result.Comic.URL())
}

func TestFetchComicNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	result, err := c.Comics.Get(context.Background(), 99999)
	require.NoError(t, err)
	assert.True(t, result.NotFound)
	assert.Equal(t, 99999, result.Number)
}

func TestFetchComicServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	result, err := c.Comics.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Failed)
}

func TestToEmbed(t *testing.T) {
	embed := ToEmbed(Result{Number: 927, Comic: &Comic{
		Number: 927, Day: "20", Month: "7", Year: "2011",
		Title: "Standards",
		Alt:   "Fortunately, the charging one has been solved.",
		Img:   "https://imgs.xkcd.com/comics/standards.png",
	}})
	assert.Equal(t, "Standards", embed.Title)
	assert.Equal(t, "https://xkcd.com/927", embed.URL)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "https://imgs.xkcd.com/comics/standards.png", embed.Image.URL)
	assert.Equal(t, "Fortunately, the charging one has been solved. • July 20, 2011", embed.Footer.Text)
}

func TestToEmbedInteractiveComic(t *testing.T) {
	embed := ToEmbed(Result{Number: 1350, Comic: &Comic{
		Number: 1350, Day: "1", Month: "4", Year: "2014",
		Title: "Lorenz",
		// Interactive comics point img at a directory, not an image.
		Img:        "https://imgs.xkcd.com/comics/",
		Transcript: "An interactive story.",
		ExtraParts: map[string]string{"imgAttr": "something"},
	}})
	assert.Nil(t, embed.Image)
	assert.Equal(t, "An interactive story.", embed.Description)
	assert.Equal(t, colorInteractive, embed.Color)
	require.NotEmpty(t, embed.Fields)
	assert.Contains(t, embed.Fields[0].Value, "interactive comic")
}

func TestToEmbedNotFound(t *testing.T) {
	embed := ToEmbed(Result{Number: 404, NotFound: true})
	assert.Equal(t, colorNotFound, embed.Color)
	assert.Equal(t, "xkcd #404 does not exist", embed.Footer.Text)

	embed = ToEmbed(Result{Number: 7, Failed: true})
	assert.Equal(t, "Unable to fetch xkcd #7", embed.Footer.Text)
}

func TestProcessDedupesAndCaps(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := New(c, db, nil)

	out, err := s.Process(context.Background(), &discordgo.Message{
		Content: "xkcd#1 xkcd#2 XKCD#1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.ItemCount)

	content := ""
	for i := 1; i <= 12; i++ {
		content += fmt.Sprintf("xkcd#%d ", i)
	}
	out, err = s.Process(context.Background(), &discordgo.Message{Content: content})
	require.NoError(t, err)
	require.Len(t, out.Embeds, maxEmbeds)
	assert.Equal(t, "3 xkcd comics were omitted", out.Embeds[maxEmbeds-1].Footer.Text)
}
