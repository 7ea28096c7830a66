package models

// ReminderType is a per-user category shown in notification text.
type ReminderType struct {
	ID     int    `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}
