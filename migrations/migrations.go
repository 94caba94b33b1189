// Package migrations embeds the goose SQL migrations for the threat monitor
// schema: the raw message queue, threat records, account summaries, alerts,
// network connections and analysis logs.
package migrations

import "embed"

// FS holds every *.sql migration, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
