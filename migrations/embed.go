package migrations

import "embed"

// Server stores forward-only SQL migrations for the engine database.
//
//go:embed server/*.sql
var Server embed.FS

// Client stores forward-only SQL migrations for a partner installation's
// local cache database.
//
//go:embed client/*.sql
var Client embed.FS
