package utils

import (
	"os"
	"path/filepath"
	"sort"
)

// LocalEntry is one item of a local directory listing.
type LocalEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// ListDir returns the entries of dir sorted by name. Symlinks are
// followed so a link to a directory lists as a directory.
func ListDir(dir string) ([]LocalEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]LocalEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())
		isDir := de.IsDir()
		if de.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil {
				isDir = info.IsDir()
			}
		}
		entries = append(entries, LocalEntry{Name: de.Name(), Path: path, IsDir: isDir})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
