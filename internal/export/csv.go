// Package export renders transaction history as CSV. The synchronous
// download and the background job deliberately keep their historical column
// layouts, so there are two writers instead of one.
package export

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const (
	syncTimeLayout = "2006-01-02 15:04:05"
	jobDateLayout  = "2006-01-02"
)

// WriteSync streams the layout served by the synchronous download endpoint:
// full timestamps, title included.
func WriteSync(w io.Writer, transactions []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "cash", "type", "category_id", "created_at"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range transactions {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			formatCash(t.Cash),
			string(t.Type),
			strconv.FormatInt(t.CategoryID, 10),
			t.CreatedAt.UTC().Format(syncTimeLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJob writes the layout produced by the background export job:
// date-only timestamps, no title.
func WriteJob(w io.Writer, transactions []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "cash", "type", "created_at", "category_id"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range transactions {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			formatCash(t.Cash),
			string(t.Type),
			t.CreatedAt.UTC().Format(jobDateLayout),
			strconv.FormatInt(t.CategoryID, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SyncFilename names the synchronous download after the moment it was taken.
func SyncFilename(now time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", now.UTC().Format("20060102_150405"))
}

// JobFilename names a background export file. The random part makes the
// name unguessable since the exports directory is served statically.
func JobFilename(userID int64) string {
	id := uuid.New()
	return fmt.Sprintf("%d_%s.csv", userID, hex.EncodeToString(id[:]))
}

func formatCash(cash float64) string {
	return strconv.FormatFloat(cash, 'f', -1, 64)
}
