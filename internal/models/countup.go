package models

import "time"

// CountUp is a streak counter ("N days since X"). CountingFrom is nil while
// the counter is stopped.
type CountUp struct {
	ID           int        `json:"id"`
	UserID       int64      `json:"user_id"`
	Name         string     `json:"name"`
	CountingFrom *time.Time `json:"counting_from"` // UTC
}

// CountUpHistory is one run of a counter. EndTime is nil while running; at most
// one history row per counter is open at a time.
type CountUpHistory struct {
	ID        int        `json:"id"`
	CountUpID int        `json:"count_up_id"`
	StartTime time.Time  `json:"start_time"` // UTC
	EndTime   *time.Time `json:"end_time"`   // UTC
}
