//go:build !linux

package ss

import "os"

// writeFileLocked is the non-Linux fallback: the advisory flock(2) in
// persist_linux.go has no portable equivalent, so this relies solely on
// the in-process FLOCK plus the rename-based atomic replace in persist().
func writeFileLocked(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
