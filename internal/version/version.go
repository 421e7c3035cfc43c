// SPDX-License-Identifier: MIT

// Package version exposes build metadata injected at link time.
package version

// Set via -ldflags "-X github.com/wisp-term/wispbot/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
