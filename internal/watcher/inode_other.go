//go:build !unix

package watcher

import "os"

// inodeOf has no portable equivalent on non-unix platforms; the symlink
// loop guard is simply disabled there.
func inodeOf(info os.FileInfo) (uint64, bool) {
	return 0, false
}
