package model

// EntryKind is the type label of a directory listing entry as reported by
// the GitHub contents API.
type EntryKind string

const (
	EntryKindFile EntryKind = "file"
	EntryKindDir  EntryKind = "dir"
)

// TreeEntry represents one child of a directory listing. Entries are
// consumed by the traversal as soon as they are listed and never persisted.
type TreeEntry struct {
	Kind EntryKind // "file", "dir", or another API type such as "symlink"
	Name string    // Base name within the parent directory
	Path string    // Repository relative path reported by the API
	URL  string    // Follow-up URL: listing for directories, content for files
	Size int64     // Size in bytes for files, 0 for directories
}
