// Package data embeds the default scenario library.
package data

import "embed"

// FS holds scenarios/*.json.
//
//go:embed scenarios/*.json
var FS embed.FS
