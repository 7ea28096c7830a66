package models

// ReminderMessage records an outstanding notification sent for an actionable
// reminder. All rows for a reminder are removed together when it is completed.
type ReminderMessage struct {
	ID         int `json:"id"`
	ReminderID int `json:"reminder_id"`
	MessageID  int `json:"message_id"` // channel-specific message identifier
}
