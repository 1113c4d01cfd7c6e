package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
)

// ExtractJob records one pipeline run over a stored file.
type ExtractJob struct {
	ID           uuid.UUID           `json:"id"`
	FileID       string              `json:"fileId"`
	Status       constants.JobStatus `json:"status"`
	Method       string              `json:"method,omitempty"`
	Confidence   *float64            `json:"confidence,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	StartedAt    time.Time           `json:"startedAt"`
	FinishedAt   *time.Time          `json:"finishedAt,omitempty"`
}

// JobOutcome is what a finished run reports back.
type JobOutcome struct {
	Status       constants.JobStatus
	Method       string
	Confidence   *float64
	ErrorMessage string
	Attempts     any
}

type ExtractJobRepository interface {
	Start(ctx context.Context, fileID string) (*ExtractJob, error)
	Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error
	ListByFile(ctx context.Context, fileID string) ([]*ExtractJob, error)
}

type extractJobRepo struct {
	store *Store
	log   *slog.Logger
}

func NewExtractJobRepository(store *Store, log *slog.Logger) ExtractJobRepository {
	return &extractJobRepo{store: store, log: log}
}

func (r *extractJobRepo) Start(ctx context.Context, fileID string) (*ExtractJob, error) {
	job := &ExtractJob{
		ID:        uuid.New(),
		FileID:    fileID,
		Status:    constants.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	q, args := r.store.builder().
		Insert(tableExtractJobs).
		Columns("id", "file_id", "status", "started_at").
		Values(job.ID, job.FileID, string(job.Status), job.StartedAt).
		Query()
	if err := r.store.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job start failed", "file_id", fileID, "err", err)
		return nil, common.DatabaseError("start extract job", err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "file_id", fileID)
	return job, nil
}

func (r *extractJobRepo) Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error {
	upd := r.store.builder().
		Update(tableExtractJobs).
		Set("status", string(out.Status)).
		Set("method", out.Method).
		Set("error_message", out.ErrorMessage).
		Set("finished_at", time.Now().UTC())
	if out.Confidence != nil {
		upd = upd.Set("confidence", *out.Confidence)
	}
	if out.Attempts != nil {
		if b, err := json.Marshal(out.Attempts); err == nil {
			upd = upd.Set("attempts", string(b))
		}
	}
	q, args := upd.Where(entsql.EQ("id", jobID)).Query()

	if err := r.store.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job finish failed", "job_id", jobID, "status", out.Status, "err", err)
		return common.DatabaseError("finish extract job", err)
	}
	if out.Status == constants.JobStatusFailed {
		r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", out.ErrorMessage)
	} else {
		r.log.Info("extract_job finished", "job_id", jobID, "status", out.Status, "method", out.Method)
	}
	return nil
}

func (r *extractJobRepo) ListByFile(ctx context.Context, fileID string) ([]*ExtractJob, error) {
	q, args := r.store.builder().
		Select("id", "file_id", "status", "method", "confidence", "error_message", "started_at", "finished_at").
		From(entsql.Table(tableExtractJobs)).
		Where(entsql.EQ("file_id", fileID)).
		OrderBy(entsql.Desc("started_at")).
		Query()

	var rows entsql.Rows
	if err := r.store.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.DatabaseError("list extract jobs", err)
	}
	defer rows.Close()

	var jobs []*ExtractJob
	for rows.Next() {
		var (
			j        ExtractJob
			status   string
			conf     entsql.NullFloat64
			started  timestamp
			finished timestamp
		)
		if err := rows.Scan(&j.ID, &j.FileID, &status, &j.Method, &conf, &j.ErrorMessage, &started, &finished); err != nil {
			return nil, common.DatabaseError("scan extract job", err)
		}
		j.Status = constants.JobStatus(status)
		if conf.Valid {
			j.Confidence = &conf.Float64
		}
		j.StartedAt = started.Time
		if finished.Valid {
			j.FinishedAt = &finished.Time
		}
		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("iterate extract jobs", err)
	}
	return jobs, nil
}
