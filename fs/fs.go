// Package appfs embeds static files needed at runtime.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
