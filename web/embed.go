// Package web embeds the browser-facing assets served at the site root.
package web

import "embed"

//go:embed static
var StaticFS embed.FS
