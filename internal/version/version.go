// Package version exposes build information set at link time.
package version

// Set via -ldflags "-X github.com/zvirja/kindler-bot/internal/version.Version=... -X ...GitSHA=...".
var (
	Version = "dev"
	GitSHA  = "unknown"
)
