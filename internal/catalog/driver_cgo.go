//go:build cgo

package catalog

import (
	_ "github.com/mattn/go-sqlite3"
)

// sqlDriverName is the database/sql driver registered for this build.
// A cgo toolchain is available, so the catalog uses mattn/go-sqlite3,
// matching the teacher's default.
const sqlDriverName = "sqlite3"
