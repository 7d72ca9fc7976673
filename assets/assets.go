package assets

import "embed"

// Migrations holds the SQL schema of the remote activity mirror.
//
//go:embed migrations/*.sql
var Migrations embed.FS
