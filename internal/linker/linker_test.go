// SPDX-License-Identifier: MIT

package linker

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// snowflakeAt builds a Discord snowflake with the given creation time.
func snowflakeAt(ts time.Time) string {
	const discordEpoch = 1420070400000
	return strconv.FormatInt((ts.UnixMilli()-discordEpoch)<<22, 10)
}

func TestLinkRoundTrip(t *testing.T) {
	l := New(newTestDB(t), "mentions")

	link := Link{
		OriginalChannelID: "100",
		OriginalAuthorID:  "200",
		ReplyChannelID:    "100",
		ReplyID:           "300",
	}
	require.NoError(t, l.Link("1", link))

	got, ok := l.Get("1")
	require.True(t, ok)
	assert.Equal(t, link, got)

	originalID, ok := l.OriginalOf("300")
	require.True(t, ok)
	assert.Equal(t, "1", originalID)

	_, ok = l.Get("2")
	assert.False(t, ok)
}

func TestLinkRejectsDuplicate(t *testing.T) {
	l := New(newTestDB(t), "mentions")
	require.NoError(t, l.Link("1", Link{ReplyID: "300"}))
	err := l.Link("1", Link{ReplyID: "301"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has a reply linked")
}

func TestUnlinkDropsBothDirections(t *testing.T) {
	l := New(newTestDB(t), "mentions")
	require.NoError(t, l.Link("1", Link{ReplyID: "300"}))

	l.Unlink("1")
	_, ok := l.Get("1")
	assert.False(t, ok)
	_, ok = l.OriginalOf("300")
	assert.False(t, ok)
}

func TestNamespacesAreIsolated(t *testing.T) {
	db := newTestDB(t)
	mentions := New(db, "mentions")
	comments := New(db, "comments")

	require.NoError(t, mentions.Link("1", Link{ReplyID: "300"}))
	_, ok := comments.Get("1")
	assert.False(t, ok)
}

func TestFreeze(t *testing.T) {
	l := New(newTestDB(t), "zigcode")
	assert.False(t, l.IsFrozen("1"))
	l.Freeze("1")
	assert.True(t, l.IsFrozen("1"))
	l.Unfreeze("1")
	assert.False(t, l.IsFrozen("1"))
}

func TestExpired(t *testing.T) {
	assert.False(t, Expired(snowflakeAt(time.Now().Add(-time.Hour))))
	assert.True(t, Expired(snowflakeAt(time.Now().Add(-25*time.Hour))))
	assert.True(t, Expired("not-a-snowflake"))
}

func TestProcessedMessageEqual(t *testing.T) {
	a := ProcessedMessage{ItemCount: 2, Content: "hi"}
	b := ProcessedMessage{ItemCount: 2, Content: "hi"}
	assert.True(t, a.Equal(b))

	b.Content = "bye"
	assert.False(t, a.Equal(b))
}

func TestActionsCustomID(t *testing.T) {
	l := New(newTestDB(t), "codelinks")
	a := NewActions(l, "linked this code snippet", "linked these code snippets", nil)

	components := a.Components("10", "20", 3)
	require.Len(t, components, 1)

	id := a.customID("delete", "10", "20", 3)
	assert.Equal(t, "linker:codelinks:delete:10:20:3", id)
	assert.True(t, a.Handles(id))
	assert.False(t, a.Handles(fmt.Sprintf("linker:%s:delete:10:20:3", "mentions")))
}
