// Package worker runs background CSV export jobs picked up from the queue.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/amqp"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ExportWorker turns a queued export request into a CSV file on disk, a
// completed job row and, when the user has an email address, a
// notification.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	mailer    Mailer
	exportDir string
	baseURL   string
	logger    *log.Logger
}

// Mailer matches mail.Sender; nil disables notifications.
type Mailer interface {
	Send(to, subject, body string) error
}

func NewExportWorker(storage *storage.SQLiteRepository, mailer Mailer, exportDir, baseURL string, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		mailer:    mailer,
		exportDir: exportDir,
		baseURL:   baseURL,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExportRequest processes one job. Only infrastructure errors
// propagate back to the consumer for a requeue; a job that fails on its own
// terms is marked failed and acked.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	w.logger.InfoContext(ctx, "processing export request",
		log.FieldJobID, msg.JobID,
		log.FieldUserID, msg.UserID)

	if err := w.storage.MarkExportJobStarted(ctx, msg.JobID); err != nil {
		return fmt.Errorf("mark job started: %w", err)
	}

	fileURL, err := w.runExport(ctx, msg.UserID)
	if err != nil {
		w.logger.ErrorContext(ctx, "export failed",
			log.FieldJobID, msg.JobID,
			log.FieldError, err)
		if markErr := w.storage.MarkExportJobFailed(ctx, msg.JobID, err.Error()); markErr != nil {
			return fmt.Errorf("mark job failed: %w", markErr)
		}
		return nil
	}

	if err := w.storage.MarkExportJobCompleted(ctx, msg.JobID, fileURL); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}

	w.notify(ctx, msg.UserID, fileURL)

	w.logger.InfoContext(ctx, "export completed",
		log.FieldJobID, msg.JobID,
		"file_url", fileURL)
	return nil
}

func (w *ExportWorker) runExport(ctx context.Context, userID int64) (string, error) {
	transactions, err := w.storage.AllTransactions(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load transactions: %w", err)
	}

	filename := export.JobFilename(userID)
	path := filepath.Join(w.exportDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := export.WriteJob(f, transactions); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close export file: %w", err)
	}

	w.logger.InfoContext(ctx, "export file written",
		log.FieldUserID, userID,
		log.FieldFilePath, path,
		"rows", len(transactions))

	return "/static/exports/" + filename, nil
}

// notify emails the download link. Failures are logged and swallowed; the
// job already completed.
func (w *ExportWorker) notify(ctx context.Context, userID int64, fileURL string) {
	if w.mailer == nil {
		return
	}

	user, err := w.storage.GetUserByID(ctx, userID)
	if err != nil {
		w.logger.WarnContext(ctx, "cannot load user for notification",
			log.FieldUserID, userID,
			log.FieldError, err)
		return
	}
	if user.Email == "" {
		return
	}

	link := w.baseURL + fileURL
	body := fmt.Sprintf("Hello %s,\n\nyour transaction export is ready:\n%s\n", user.Name, link)
	if err := w.mailer.Send(user.Email, "Your export is ready", body); err != nil {
		w.logger.WarnContext(ctx, "failed to send notification",
			log.FieldUserID, userID,
			log.FieldError, err)
		return
	}

	w.logger.InfoContext(ctx, "notification sent", log.FieldUserID, userID)
}
