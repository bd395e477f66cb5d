// Package appfs embeds the application's static assets.
package appfs

import "embed"

// FS holds the HTML page and email templates.
//go:embed templates/email/* templates/web/*
var FS embed.FS
