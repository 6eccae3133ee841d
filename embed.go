package chatbot

import "embed"

// MigrationsFS holds the SQL migrations applied at startup.
//
//go:embed migrations
var MigrationsFS embed.FS

// WebFS holds the static browser UI served at /.
//
//go:embed web
var WebFS embed.FS
