package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/payslip-tracker/internal/common"
)

// PDFFile is an uploaded document, keyed by the hex sha256 of its content.
type PDFFile struct {
	ID         string
	Filename   string
	SourcePath string
	Size       int64
	UploadedAt time.Time
}

type FileRepository interface {
	GetByID(ctx context.Context, id string) (*PDFFile, error)
	// Upsert records f unless a file with the same content hash exists. The
	// stored row is returned together with whether it already existed.
	Upsert(ctx context.Context, f PDFFile) (*PDFFile, bool, error)
}

type fileRepo struct {
	store  *Store
	logger *slog.Logger
}

func NewFileRepository(store *Store, logger *slog.Logger) FileRepository {
	return &fileRepo{store: store, logger: logger}
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*PDFFile, error) {
	q, args := r.store.builder().
		Select("id", "filename", "source_path", "file_size", "uploaded_at").
		From(entsql.Table(tableFiles)).
		Where(entsql.EQ("id", id)).
		Query()

	var rows entsql.Rows
	if err := r.store.drv.Query(ctx, q, args, &rows); err != nil {
		r.logger.Error("failed to get pdf file", "file_id", id, "error", err)
		return nil, common.DatabaseError("get pdf file", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, common.DatabaseError("get pdf file", err)
		}
		return nil, common.NewAppError(common.CodeNotFound, "file "+id+" not found", common.ErrNotFound)
	}
	var (
		f  PDFFile
		at timestamp
	)
	if err := rows.Scan(&f.ID, &f.Filename, &f.SourcePath, &f.Size, &at); err != nil {
		return nil, common.DatabaseError("get pdf file", err)
	}
	f.UploadedAt = at.Time
	return &f, nil
}

func (r *fileRepo) Upsert(ctx context.Context, f PDFFile) (*PDFFile, bool, error) {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	q, args := r.store.builder().
		Insert(tableFiles).
		Columns("id", "filename", "source_path", "file_size", "uploaded_at").
		Values(f.ID, f.Filename, f.SourcePath, f.Size, f.UploadedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()

	var res sql.Result
	if err := r.store.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to upsert pdf file", "file_id", f.ID, "filename", f.Filename, "error", err)
		return nil, false, common.DatabaseError("upsert pdf file", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := r.GetByID(ctx, f.ID)
		if err != nil {
			return nil, false, err
		}
		r.logger.Debug("pdf file already recorded", "file_id", f.ID)
		return existing, true, nil
	}
	r.logger.Info("pdf file recorded", "file_id", f.ID, "filename", f.Filename, "size", f.Size)
	return &f, false, nil
}
