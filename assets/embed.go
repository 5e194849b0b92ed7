// assets/embed.go
//
// Embedded data shipped with the binary:
//   - pools/*.json:       item pools of every catalog game.
//   - migrations/*.sql:   SQLite schema, applied in lexical order.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed pools/*.json
var pools embed.FS

//go:embed migrations/*.sql
var migrations embed.FS

// Pool returns the raw JSON of pools/<name>.json.
func Pool(name string) ([]byte, error) {
	return pools.ReadFile("pools/" + name + ".json")
}

// Migrations returns the migration files rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		// Only fails for an invalid path, which is a constant here.
		panic(err)
	}
	return sub
}
