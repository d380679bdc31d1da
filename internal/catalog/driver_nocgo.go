//go:build !cgo

package catalog

import (
	_ "modernc.org/sqlite"
)

// sqlDriverName is the database/sql driver registered for this build.
// Without cgo, mattn/go-sqlite3 cannot build, so the catalog falls back to
// modernc.org/sqlite's pure-Go driver, mirroring internal/vectorstore's
// cgo/non-cgo split.
const sqlDriverName = "sqlite"
