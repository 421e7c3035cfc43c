// SPDX-License-Identifier: MIT

// Package linker tracks which bot reply belongs to which user message, so
// edits and deletions of the original propagate to the reply. Links live in
// badger and survive restarts; they expire after 24 hours.
package linker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/log"
)

// Expiry is how long a link stays actionable after the original message was
// created.
const Expiry = 24 * time.Hour

// Link points from an original message to the bot's reply.
type Link struct {
	OriginalChannelID string `json:"orig_channel"`
	OriginalAuthorID  string `json:"orig_author"`
	ReplyChannelID    string `json:"reply_channel"`
	ReplyID           string `json:"reply_id"`
}

// Linker is one scanner's original-to-reply map. name namespaces the keys so
// scanners do not see each other's links.
type Linker struct {
	db     *badger.DB
	name   string
	logger zerolog.Logger
}

// New returns a Linker backed by db under the given namespace.
func New(db *badger.DB, name string) *Linker {
	return &Linker{
		db:     db,
		name:   name,
		logger: log.WithComponent("linker").With().Str("scanner", name).Logger(),
	}
}

func (l *Linker) key(kind, id string) []byte {
	return fmt.Appendf(nil, "link:%s:%s:%s", l.name, kind, id)
}

// Link records reply as the response to the original message. A message can
// only have one linked reply.
func (l *Linker) Link(originalID string, link Link) error {
	value, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("encode link: %w", err)
	}
	return l.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(l.key("o", originalID)); err == nil {
			return fmt.Errorf("message %s already has a reply linked", originalID)
		}
		entry := badger.NewEntry(l.key("o", originalID), value).WithTTL(Expiry)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		reverse := badger.NewEntry(l.key("r", link.ReplyID), []byte(originalID)).WithTTL(Expiry)
		return txn.SetEntry(reverse)
	})
}

// Get returns the link for an original message, if any.
func (l *Linker) Get(originalID string) (Link, bool) {
	var link Link
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(l.key("o", originalID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &link)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			l.logger.Warn().Err(err).Msg("link lookup failed")
		}
		return Link{}, false
	}
	return link, true
}

// OriginalOf maps a bot reply back to the original message ID.
func (l *Linker) OriginalOf(replyID string) (string, bool) {
	var originalID string
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(l.key("r", replyID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			originalID = string(v)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return originalID, true
}

// Unlink drops the link for an original message.
func (l *Linker) Unlink(originalID string) {
	link, ok := l.Get(originalID)
	err := l.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(l.key("o", originalID)); err != nil {
			return err
		}
		if ok {
			return txn.Delete(l.key("r", link.ReplyID))
		}
		return nil
	})
	if err != nil {
		l.logger.Warn().Err(err).Msg("unlink failed")
	}
}

// Freeze stops edit and delete propagation for an original message.
func (l *Linker) Freeze(originalID string) {
	err := l.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(l.key("f", originalID), []byte{1}).WithTTL(Expiry)
		return txn.SetEntry(entry)
	})
	if err != nil {
		l.logger.Warn().Err(err).Msg("freeze failed")
	}
}

// Unfreeze reverts Freeze.
func (l *Linker) Unfreeze(originalID string) {
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(l.key("f", originalID))
	})
	if err != nil {
		l.logger.Warn().Err(err).Msg("unfreeze failed")
	}
}

// IsFrozen reports whether the original message is frozen.
func (l *Linker) IsFrozen(originalID string) bool {
	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(l.key("f", originalID))
		return err
	})
	return err == nil
}

// Expired reports whether a message is past the linking window, derived
// from its snowflake timestamp.
func Expired(messageID string) bool {
	ts, err := discordgo.SnowflakeTimestamp(messageID)
	if err != nil {
		return true
	}
	return time.Since(ts) > Expiry
}
