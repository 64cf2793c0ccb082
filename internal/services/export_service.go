package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ExportPublisher wakes the worker up after a job row exists. The row is
// the source of truth; the message only carries ids.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, jobID string, userID int64) error
}

// ExportStatus is the client-facing view of a background export job.
type ExportStatus struct {
	Status  string
	FileURL string
	Error   string
}

// ExportService submits background CSV exports and answers status polls.
type ExportService struct {
	repo      *storage.SQLiteRepository
	publisher ExportPublisher
	logger    *log.Logger
}

func NewExportService(repo *storage.SQLiteRepository, publisher ExportPublisher, logger *log.Logger) *ExportService {
	return &ExportService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExport),
	}
}

// Submit records a pending job and notifies the worker. The row is written
// before the message so a worker can never see a job id it cannot load.
func (s *ExportService) Submit(ctx context.Context, userID int64) (string, error) {
	jobID := uuid.NewString()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", storageErr(ctx, s.logger, "load user for export", err)
	}

	if err := s.repo.CreateExportJob(ctx, storage.ExportJob{
		ID:        jobID,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return "", storageErr(ctx, s.logger, "create export job", err)
	}

	if err := s.publisher.PublishExportRequest(ctx, jobID, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish export request",
			log.FieldJobID, jobID,
			log.FieldError, err)
		if markErr := s.repo.MarkExportJobFailed(ctx, jobID, "job queue unavailable"); markErr != nil {
			s.logger.ErrorContext(ctx, "failed to mark export job failed",
				log.FieldJobID, jobID,
				log.FieldError, markErr)
		}
		return "", fmt.Errorf("publish export request: %w", core.ErrDatabase)
	}

	s.logger.InfoContext(ctx, "export job submitted",
		log.FieldUserID, userID,
		log.FieldJobID, jobID)
	return jobID, nil
}

// Status reports the job's current state. Ids the poller does not own, or
// that do not exist yet, report as pending rather than revealing anything.
func (s *ExportService) Status(ctx context.Context, userID int64, jobID string) (ExportStatus, error) {
	job, err := s.repo.GetExportJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExportStatus{Status: storage.JobStatusPending}, nil
		}
		return ExportStatus{}, storageErr(ctx, s.logger, "get export job", err)
	}
	if job.UserID != userID {
		return ExportStatus{Status: storage.JobStatusPending}, nil
	}

	switch job.Status {
	case storage.JobStatusCompleted:
		return ExportStatus{Status: job.Status, FileURL: job.FilePath}, nil
	case storage.JobStatusFailed:
		return ExportStatus{Status: job.Status, Error: job.Error}, nil
	default:
		return ExportStatus{Status: job.Status}, nil
	}
}
