package usecase

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// archiveFile is one downloaded file waiting for finalization.
type archiveFile struct {
	path string
	data []byte
}

// archiveBuilder accumulates downloaded files from concurrent tasks and
// finalizes them into a single zip stream exactly once.
type archiveBuilder struct {
	mu       sync.Mutex
	files    []archiveFile
	bytes    int64
	modified time.Time
}

func newArchiveBuilder() *archiveBuilder {
	// A single timestamp for all entries keeps archives of the same tree
	// byte-identical between runs.
	return &archiveBuilder{modified: time.Now().UTC()}
}

// Add stores one downloaded file. Safe for concurrent use.
func (b *archiveBuilder) Add(path string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files = append(b.files, archiveFile{path: path, data: data})
	b.bytes += int64(len(data))
}

// Count returns the number of accumulated files.
func (b *archiveBuilder) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// TotalBytes returns the accumulated uncompressed content size.
func (b *archiveBuilder) TotalBytes() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bytes
}

// WriteZip finalizes the accumulated files into w. Entries are sorted by
// path so the same tree always yields the same archive regardless of task
// completion order.
func (b *archiveBuilder) WriteZip(w io.Writer) error {
	b.mu.Lock()
	files := make([]archiveFile, len(b.files))
	copy(files, b.files)
	b.mu.Unlock()

	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	zw := zip.NewWriter(w)
	for _, file := range files {
		header := &zip.FileHeader{
			Name:     sanitizeEntryPath(file.path),
			Method:   zip.Deflate,
			Modified: b.modified,
		}
		header.SetMode(0o644)

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", file.path, err)
		}
		if _, err := entry.Write(file.data); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", file.path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip archive: %w", err)
	}
	return nil
}

// sanitizeEntryPath keeps zip entry names relative and traversal-free.
func sanitizeEntryPath(path string) string {
	cleaned := strings.TrimLeft(strings.ReplaceAll(path, "\\", "/"), "/")

	var kept []string
	for _, part := range strings.Split(cleaned, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(kept) > 0 {
				kept = kept[:len(kept)-1]
			}
		default:
			kept = append(kept, part)
		}
	}

	if len(kept) == 0 {
		return "entry"
	}
	return strings.Join(kept, "/")
}
