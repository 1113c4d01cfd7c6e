package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

var _ Ingestor = (*FSIngestor)(nil)

// FSIngestor keeps uploaded PDFs on the local filesystem, addressed by the
// sha256 of their content, and records them in the files table when a
// repository is configured.
type FSIngestor struct {
	Dir      string
	Files    repository.FileRepository // optional
	MaxBytes int64
	logger   *slog.Logger
}

func NewFSIngestor(dir string, files repository.FileRepository, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Dir:      dir,
		Files:    files,
		MaxBytes: constants.MaxUploadBytes,
		logger:   logger,
	}
}

// Ingest validates and stores one document. Non-PDF content fails with a
// FORMAT_ERROR; oversize content with ErrTooLarge.
func (i *FSIngestor) Ingest(ctx context.Context, filename string, r io.Reader) (IngestionResult, error) {
	var out IngestionResult

	data, err := io.ReadAll(io.LimitReader(r, i.MaxBytes+1))
	if err != nil {
		i.logger.Error("read upload failed", "filename", filename, "error", err)
		return out, err
	}
	if int64(len(data)) > i.MaxBytes {
		i.logger.Warn("upload rejected", "filename", filename, "reason", "too large", "limit", i.MaxBytes)
		return out, common.NewAppError(common.CodeValidation,
			fmt.Sprintf("file exceeds %d bytes", i.MaxBytes), common.ErrTooLarge)
	}
	if !constants.HasPDFMagic(data) {
		i.logger.Warn("upload rejected", "filename", filename, "reason", "not a pdf")
		return out, common.FormatError(filename + " is not a PDF document")
	}

	sum := sha256.Sum256(data)
	id := hex.EncodeToString(sum[:])
	path := i.blobPath(id)

	dedup := false
	if _, err := os.Stat(path); err == nil {
		dedup = true
	} else if err := writeAtomic(path, data); err != nil {
		i.logger.Error("store upload failed", "file_id", id, "error", err)
		return out, err
	}

	out = IngestionResult{
		FileID:       id,
		Filename:     filepath.Base(filename),
		Size:         int64(len(data)),
		Deduplicated: dedup,
		UploadedAt:   time.Now().UTC(),
	}
	if i.Files != nil {
		row, existed, err := i.Files.Upsert(ctx, repository.PDFFile{
			ID:         id,
			Filename:   out.Filename,
			SourcePath: filename,
			Size:       out.Size,
			UploadedAt: out.UploadedAt,
		})
		if err != nil {
			return out, err
		}
		out.Deduplicated = out.Deduplicated || existed
		out.UploadedAt = row.UploadedAt
	}
	i.logger.Info("file ingested", "file_id", id, "filename", out.Filename, "size", out.Size, "dedup", out.Deduplicated)
	return out, nil
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, common.NewAppError(common.CodeValidation, fmt.Sprintf("unsupported extension %q", ext), common.ErrInvalidInput)
	}

	f, err := os.Open(abs)
	if err != nil {
		i.logger.Error("open error", "path", abs, "error", err)
		return out, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	out, err = i.Ingest(ctx, abs, f)
	out.SourcePath = abs
	return out, err
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Open returns the stored bytes for fileID.
func (i *FSIngestor) Open(_ context.Context, fileID string) ([]byte, error) {
	if !validFileID(fileID) {
		return nil, common.NewAppError(common.CodeValidation, "malformed file id", common.ErrInvalidInput)
	}
	data, err := os.ReadFile(i.blobPath(fileID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NewAppError(common.CodeNotFound, "file "+fileID+" not found", common.ErrNotFound)
	}
	return data, err
}

// blobPath fans files out by the first two hex digits of their hash.
func (i *FSIngestor) blobPath(id string) string {
	return filepath.Join(i.Dir, id[:2], id+".pdf")
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
