// Package schedule computes the next fire time for a recurring reminder.
// It is pure: it reads reminder fields and a timezone, and never mutates state.
package schedule

import (
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"trackerbot/internal/models"
)

// NextRun returns the next UTC fire time for r relative to ref (UTC), or nil
// when the schedule has no further occurrence. The cron rule is evaluated in
// loc, the owner's timezone.
//
// Rules, in order:
//   - no cron rule: nil (the reminder never re-fires automatically)
//   - start date after end date (both set): nil, the window is disabled
//   - start date still in the future: the first occurrence at/after the start
//     date; a reminder's first-ever fire is never skipped
//   - end date already passed: nil, the schedule has expired
//   - otherwise the Kth occurrence strictly after ref, where K is
//     EveryNTriggers once the reminder has fired before, else 1
func NextRun(r *models.Reminder, loc *time.Location, ref time.Time) (*time.Time, error) {
	if !r.IsRecurring() {
		return nil, nil
	}

	expr, err := cron.ParseStandard(*r.CronLocal)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid cron rule %q", *r.CronLocal)
	}

	if r.StartDate != nil && r.EndDate != nil && r.StartDate.After(*r.EndDate) {
		return nil, nil
	}

	if r.StartDate != nil && r.StartDate.After(ref) {
		// At-or-after the start bound: Next is strictly-after, so step back.
		return nthAfter(expr, 1, r.StartDate.Add(-time.Second), loc), nil
	}

	if r.EndDate != nil && r.EndDate.Before(ref) {
		return nil, nil
	}

	n := 1
	if r.LastRun != nil {
		n = r.EveryNTriggers
	}
	return nthAfter(expr, n, ref, loc), nil
}

// nthAfter walks the cron rule forward n occurrences from ref, evaluating in
// loc. If the rule is exhausted partway the last value obtained is returned,
// which may be nil.
func nthAfter(expr cron.Schedule, n int, ref time.Time, loc *time.Location) *time.Time {
	next := expr.Next(ref.In(loc))
	for i := 0; i < n-1; i++ {
		if next.IsZero() {
			break
		}
		next = expr.Next(next)
	}
	if next.IsZero() {
		return nil
	}
	utc := next.UTC()
	return &utc
}
