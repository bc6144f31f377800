package utils

import (
	"fmt"
	"path"
	"strings"
)

// Bucket stores have no folders; a folder is a key prefix ending in "/"
// and the root is the empty prefix.

// FolderPrefix returns the listing prefix of a folder id.
func FolderPrefix(id string) string {
	if id == "" || strings.HasSuffix(id, "/") {
		return id
	}
	return id + "/"
}

// ObjectKey joins a parent folder id and a child name into an object key.
func ObjectKey(parentID, name string, folder bool) (string, error) {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	key := FolderPrefix(parentID) + name
	if folder {
		key += "/"
	}
	return key, nil
}

// KeyName returns the display name of an object key or folder prefix.
func KeyName(key string) string {
	return path.Base(strings.TrimSuffix(key, "/"))
}

func IsFolderKey(key string) bool {
	return strings.HasSuffix(key, "/")
}
