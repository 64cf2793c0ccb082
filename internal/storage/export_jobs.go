package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Export job states. Pending and started mirror the queue's native
// lifecycle; completed and failed are terminal.
const (
	JobStatusPending   = "pending"
	JobStatusStarted   = "started"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ExportJob is the persisted state of one background CSV export. The row is
// the only coordination point between the API process and the worker.
type ExportJob struct {
	ID        string
	UserID    int64
	Status    string
	FilePath  string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *SQLiteRepository) CreateExportJob(ctx context.Context, job ExportJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_jobs (id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, job.ID, job.UserID, JobStatusPending, formatTime(job.CreatedAt), formatTime(job.CreatedAt))
	if err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetExportJob returns the job row, or sql.ErrNoRows wrapped for callers
// that treat unknown ids as still pending.
func (r *SQLiteRepository) GetExportJob(ctx context.Context, id string) (ExportJob, error) {
	var (
		job                  ExportJob
		filePath, errMsg     sql.NullString
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, file_path, error, created_at, updated_at
		FROM export_jobs WHERE id = ?
	`, id).Scan(&job.ID, &job.UserID, &job.Status, &filePath, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExportJob{}, fmt.Errorf("export job %s: %w", id, sql.ErrNoRows)
		}
		return ExportJob{}, fmt.Errorf("get export job: %w", err)
	}

	job.FilePath = filePath.String
	job.Error = errMsg.String
	if job.CreatedAt, err = parseTime(createdAt); err != nil {
		return ExportJob{}, err
	}
	if job.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return ExportJob{}, err
	}
	return job, nil
}

func (r *SQLiteRepository) MarkExportJobStarted(ctx context.Context, id string) error {
	return r.setJobStatus(ctx, id, JobStatusStarted, nil, nil)
}

func (r *SQLiteRepository) MarkExportJobCompleted(ctx context.Context, id, filePath string) error {
	return r.setJobStatus(ctx, id, JobStatusCompleted, &filePath, nil)
}

func (r *SQLiteRepository) MarkExportJobFailed(ctx context.Context, id, reason string) error {
	return r.setJobStatus(ctx, id, JobStatusFailed, nil, &reason)
}

func (r *SQLiteRepository) setJobStatus(ctx context.Context, id, status string, filePath, reason *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_jobs
		SET status = ?, file_path = COALESCE(?, file_path), error = COALESCE(?, error), updated_at = ?
		WHERE id = ?
	`, status, filePath, reason, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set export job %s status %s: %w", id, status, err)
	}
	return nil
}
