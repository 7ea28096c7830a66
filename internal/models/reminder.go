package models

import "time"

// Reminder is a recurring reminder. The cron rule is expressed in the owner's
// local time; NextRun/LastRun are stored in UTC. NextRun is nil when the
// schedule has no valid future occurrence (expired window, or no cron rule).
type Reminder struct {
	ID                  int        `json:"id"`
	UserID              int64      `json:"user_id"`
	Name                string     `json:"name"`
	ReminderTypeID      *int       `json:"reminder_type_id"`
	CronLocal           *string    `json:"cron_local"`
	ReminderMinutes     int        `json:"reminder_minutes"` // >0: next run = fire time + N minutes, bypassing the cron rule
	StartDate           *time.Time `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	EveryNTriggers      int        `json:"every_n_triggers"` // only notify every Nth cron occurrence
	LastRun             *time.Time `json:"last_run"`
	NextRun             *time.Time `json:"next_run"`
	Actionable          bool       `json:"actionable"`
	IsPendingCompletion bool       `json:"is_pending_completion"`
	Nonce               *int32     `json:"nonce"` // single-use completion token, re-rolled on every completion
	CreatedAt           time.Time  `json:"created_at"`

	// TypeName is populated by queries that join reminder_types; not a column.
	TypeName string `json:"-"`
}

// IsRecurring returns true if this reminder has a cron rule.
func (r *Reminder) IsRecurring() bool {
	return r.CronLocal != nil && *r.CronLocal != ""
}
