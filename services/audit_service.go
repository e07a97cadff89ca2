package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"queue-system/models"
)

// AuditService writes lifecycle events to the queue_audit collection.
// Recording is best-effort: the queue itself is never persisted and a
// failed write only logs a warning.
type AuditService struct {
	app core.App
}

func NewAuditService(app core.App) *AuditService {
	return &AuditService{app: app}
}

// Record implements the Auditor interface used by the queue service.
func (s *AuditService) Record(action string, entry models.Entry) {
	collection, err := s.app.FindCollectionByNameOrId("queue_audit")
	if err != nil {
		slog.Warn("queue_audit collection unavailable", "error", err)
		return
	}

	record := core.NewRecord(collection)
	record.Set("entry_id", entry.ID)
	record.Set("display_number", entry.DisplayNumber)
	record.Set("action", action)
	record.Set("customer_name", entry.Name)
	record.Set("contact", entry.Contact)

	if err := s.app.Save(record); err != nil {
		slog.Warn("Failed to record audit event", "action", action, "entry", entry.DisplayNumber, "error", err)
	}
}

type AuditEvent struct {
	EntryID       string `json:"entry_id"`
	DisplayNumber string `json:"display_number"`
	Action        string `json:"action"`
	Created       string `json:"created"`
}

// TodayEvents returns the audit trail since local midnight, newest first.
func (s *AuditService) TodayEvents() ([]AuditEvent, error) {
	var rows []dbx.NullStringMap
	err := s.app.DB().
		NewQuery("SELECT entry_id, display_number, action, created FROM queue_audit WHERE created >= {:start} ORDER BY created DESC").
		Bind(dbx.Params{"start": time.Now().Format("2006-01-02")}).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events := make([]AuditEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, AuditEvent{
			EntryID:       row["entry_id"].String,
			DisplayNumber: row["display_number"].String,
			Action:        row["action"].String,
			Created:       row["created"].String,
		})
	}
	return events, nil
}
