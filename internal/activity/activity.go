// SPDX-License-Identifier: MIT

// Package activity rotates the bot's custom presence.
package activity

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wisp-term/wispbot/internal/log"
)

// RotateInterval is how often a new status is picked.
const RotateInterval = 2 * time.Hour

var statuses = []string{
	"Watching over the Wisp server 🌫️",
	"Haunting your threads 🧵",
	"Admiring posts in #showcase",
	"Watching over #help",
	"Listening to your complaints",
	"Playing with my config file",
	"Competing in the terminal game",
}

// Run sets a random status immediately and again every RotateInterval until
// ctx is done.
func Run(ctx context.Context, s *discordgo.Session) error {
	logger := log.WithComponent("activity")
	ticker := time.NewTicker(RotateInterval)
	defer ticker.Stop()
	for {
		if err := s.UpdateCustomStatus(pick()); err != nil {
			logger.Warn().Err(err).Msg("updating presence failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func pick() string {
	return statuses[rand.IntN(len(statuses))]
}
