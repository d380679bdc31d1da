package watcher

import (
	"testing"

	"go.uber.org/goleak"
)

// fsnotify and database/sql each keep a long-lived background goroutine
// alive for the process lifetime; neither is a leak caused by this
// package's Watcher, so both are ignored here the same way the teacher's
// engine tests ignore them.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
		goleak.IgnoreAnyFunction("github.com/fsnotify/fsnotify.(*Watcher).readEvents"),
	)
}
