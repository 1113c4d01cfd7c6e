package ingest

import (
	"context"
	"io"
	"time"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	FileID       string    `json:"fileId"`
	Filename     string    `json:"filename"`
	SourcePath   string    `json:"sourcePath,omitempty"`
	Size         int64     `json:"size"`
	Deduplicated bool      `json:"deduplicated"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Err          string    `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the service depends on.
type Ingestor interface {
	// Ingest stores one uploaded document.
	Ingest(ctx context.Context, filename string, r io.Reader) (IngestionResult, error)
	// IngestPath stores a single file from disk.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
	// Open returns the stored bytes of a file.
	Open(ctx context.Context, fileID string) ([]byte, error)
}
