package amqp

import (
	"encoding/json"
	"time"
)

// ExportRequestMessage wakes the worker up for one export job. It carries
// ids only; the worker loads everything else from storage.
type ExportRequestMessage struct {
	JobID     string    `json:"job_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportRequestMessage(jobID string, userID int64) *ExportRequestMessage {
	return &ExportRequestMessage{
		JobID:     jobID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
