// Package migrations embeds SQL migration files into the binary.
//
// Measurand runs schema migrations from the compiled executable, so a
// deployment never needs the .sql files present on the filesystem.
package migrations

import (
	"embed"

	"github.com/measurelab/measurand/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Register embedded migrations with the database package.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
