package models

import "time"

// ReminderCompletion is an append-only history row recorded when a reminder is
// completed (not skipped). CompletionTime is UTC.
type ReminderCompletion struct {
	ID             int       `json:"id"`
	ReminderID     int       `json:"reminder_id"`
	CompletionTime time.Time `json:"completion_time"`
}
