package models

import "time"

// OneTimeReminder fires once and is deleted by the dispatcher afterwards.
type OneTimeReminder struct {
	ID        int        `json:"id"`
	UserID    int64      `json:"user_id"`
	Name      string     `json:"name"`
	NextRun   *time.Time `json:"next_run"`
	CreatedAt time.Time  `json:"created_at"`
}
