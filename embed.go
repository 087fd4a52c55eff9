// Package demoapps embeds the static web shell served by cmd/server.
package demoapps

import "embed"

// WebFS holds the web/ directory. Use fs.Sub(WebFS, "web") to serve it.
//
//go:embed web
var WebFS embed.FS
