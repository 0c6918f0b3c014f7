// Package migrations embeds the goose SQL migration sources.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
