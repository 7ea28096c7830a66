package models

import "time"

// User is keyed by the Telegram chat id, which doubles as the channel address.
type User struct {
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timezone  string    `json:"timezone"` // IANA identifier, e.g. "Europe/Oslo"
	CreatedAt time.Time `json:"created_at"`
}
