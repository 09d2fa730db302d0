package model

// ArchiveRequest represents one repository archive build.
type ArchiveRequest struct {
	Repo     RepoRef   // Target repository
	Ref      string    // Branch, tag or commit SHA; empty means the default branch
	Reporter *Reporter // Optional progress sink; the use case creates one when nil
}

// ArchiveSummary describes a finalized archive.
type ArchiveSummary struct {
	Repo     RepoRef
	Filename string // Download file name, e.g. "widgets.zip"
	Files    int    // Number of file entries in the archive
	Bytes    int64  // Total uncompressed content bytes
}
