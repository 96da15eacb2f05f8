// Package migrations embeds the bridge schema into the binary and registers
// it with the database package. Import it for side effects:
//
//	import _ "github.com/nerrad567/gray-logic-bridges/migrations"
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
