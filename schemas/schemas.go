package schemas

import "embed"

// SchemasFS - JSON-схемы событий брокера: events/<event-name>/v<N>.json
//
//go:embed events
var SchemasFS embed.FS
