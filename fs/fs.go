// Package appfs embeds the static files the apps ship with: email templates, the common passwords list and SQL migrations.
package appfs

import "embed"

//go:embed assets migrations
var FS embed.FS
