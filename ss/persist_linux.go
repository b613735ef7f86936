//go:build linux

package ss

import (
	"os"

	"golang.org/x/sys/unix"
)

// writeFileLocked writes data to path under an advisory flock(2), a
// belt-and-suspenders complement to the in-process FLOCK for the case
// where multiple SS processes are misconfigured to share a storage dir.
func writeFileLocked(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	_, err = f.Write(data)
	return err
}
