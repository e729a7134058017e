package dataset

// shred.go - best-effort secure deletion of exported artifacts

import (
	"crypto/rand"
	"fmt"
	"os"
)

const shredBlockSize = 1 << 20

// Shred overwrites the file at path with random bytes, syncs, and removes
// it. This is best effort: copy-on-write filesystems and flash wear
// leveling can keep older blocks around.
func Shred(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s for shredding: %w", path, err)
	}

	buf := make([]byte, shredBlockSize)
	remaining := info.Size()
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := rand.Read(buf[:n]); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to draw random bytes: %w", err)
		}
		if _, err := f.Write(buf[:n]); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to overwrite %s: %w", path, err)
		}
		remaining -= n
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
