package reminder

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// Action is the closed set of things a notification button can request.
type Action int

const (
	ActionDone Action = iota
	ActionSkip
)

// String returns the wire token used in callback payloads.
func (a Action) String() string {
	switch a {
	case ActionDone:
		return "done"
	case ActionSkip:
		return "skip"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// HumanReadable returns the past-tense phrasing for acknowledgement messages.
func (a Action) HumanReadable() string {
	if a == ActionSkip {
		return "skipped"
	}
	return "completed"
}

// Callback is a decoded notification button payload.
type Callback struct {
	Action     Action
	ReminderID int
	Nonce      int32
}

// Wire format: `done[17][n=1208346]`. The nonce group is optional; its absence
// means 0, which only reconciles against a reminder that has never rolled a
// nonce. Old notifications in chat histories still carry nonce-less payloads.
var callbackPattern = regexp.MustCompile(`^([^\[]+)\[(\d+)\](?:\[n=(\d+)\])?$`)

// ParseCallback decodes a callback payload, rejecting unknown actions and
// malformed data.
func ParseCallback(data string) (Callback, error) {
	m := callbackPattern.FindStringSubmatch(data)
	if m == nil {
		return Callback{}, errors.Errorf("malformed callback data %q", data)
	}

	var cb Callback
	switch m[1] {
	case "done":
		cb.Action = ActionDone
	case "skip":
		cb.Action = ActionSkip
	default:
		return Callback{}, errors.Errorf("unknown action %q", m[1])
	}

	id, err := strconv.Atoi(m[2])
	if err != nil {
		return Callback{}, errors.Wrapf(err, "failed to parse reminder id %q", m[2])
	}
	cb.ReminderID = id

	// A nonce that does not fit in 32 bits cannot match any stored value;
	// treat it like an absent one.
	if m[3] != "" {
		if v, err := strconv.ParseInt(m[3], 10, 32); err == nil {
			cb.Nonce = int32(v)
		}
	}

	return cb, nil
}

// Encode renders the payload for a notification button.
func (c Callback) Encode() string {
	return fmt.Sprintf("%s[%d][n=%d]", c.Action, c.ReminderID, c.Nonce)
}
