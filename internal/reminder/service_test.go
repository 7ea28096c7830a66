package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackerbot/internal/models"
)

var errTransport = errors.New("transport failure")

type fixture struct {
	store   *fakeStore
	users   *fakeDirectory
	channel *fakeChannel
	clk     clock.FakeClock
	svc     *Service
}

func newFixture() *fixture {
	f := &fixture{
		store:   newFakeStore(),
		users:   &fakeDirectory{users: make(map[int64]*models.User)},
		channel: newFakeChannel(),
		clk:     clock.NewFake(),
	}
	f.clk.Set(utc("2024-01-01T09:00:00Z"))
	f.svc = NewService(f.store, f.users, f.channel, f.clk, zap.NewNop().Sugar())
	return f
}

func (f *fixture) addUser(id int64, tz string) {
	f.users.users[id] = &models.User{UserID: id, UserName: "u", Timezone: tz}
}

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }
func noncePtr(n int32) *int32        { return &n }

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func dailyReminder(id int, userID int64) *models.Reminder {
	return &models.Reminder{
		ID:             id,
		UserID:         userID,
		Name:           "Meditate",
		CronLocal:      strPtr("0 9 * * *"),
		EveryNTriggers: 1,
		NextRun:        timePtr(utc("2024-01-01T09:00:00Z")),
		Actionable:     true,
	}
}

func TestDispatchDue_RecurringActionable(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	f.store.reminders[1] = r

	tick := utc("2024-01-01T09:00:00Z")
	require.NoError(t, f.svc.DispatchDue(context.Background(), tick))

	got := f.store.reminders[1]
	require.NotNil(t, got.NextRun)
	assert.Equal(t, utc("2024-01-02T09:00:00Z"), *got.NextRun)
	assert.True(t, got.IsPendingCompletion)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, tick, *got.LastRun)

	require.Len(t, f.channel.sent, 1)
	sent := f.channel.sent[0]
	assert.Equal(t, int64(5), sent.chatID)
	assert.Equal(t, "Reminder: Meditate", sent.text)
	require.Len(t, sent.buttons, 2)
	assert.Equal(t, "done[1][n=777]", sent.buttons[0].Data)
	assert.Equal(t, "skip[1][n=777]", sent.buttons[1].Data)

	require.Len(t, f.store.messages, 1)
	assert.Equal(t, 1, f.store.messages[0].ReminderID)
}

func TestDispatchDue_TypeNameInText(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.TypeName = "Health"
	f.store.reminders[1] = r

	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:00:00Z")))
	require.Len(t, f.channel.sent, 1)
	assert.Equal(t, "Reminder: Health - Meditate", f.channel.sent[0].text)
}

func TestDispatchDue_NonActionableFireAndForget(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Actionable = false
	f.store.reminders[1] = r

	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:00:00Z")))

	require.Len(t, f.channel.sent, 1)
	assert.Empty(t, f.channel.sent[0].buttons)
	assert.Empty(t, f.store.messages, "no outstanding notification for non-actionable reminders")
	assert.True(t, f.store.reminders[1].IsPendingCompletion, "pending is set unconditionally")
}

func TestDispatchDue_MinuteIntervalBypassesCron(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.ReminderMinutes = 15
	f.store.reminders[1] = r

	tick := utc("2024-01-01T09:00:00Z")
	require.NoError(t, f.svc.DispatchDue(context.Background(), tick))

	got := f.store.reminders[1]
	require.NotNil(t, got.NextRun)
	assert.Equal(t, tick.Add(15*time.Minute), *got.NextRun)
	assert.Nil(t, got.LastRun, "last run is only stamped on the cron path")
}

func TestDispatchDue_MissingOwnerSkipsReminder(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	orphan := dailyReminder(1, 99)
	ok := dailyReminder(2, 5)
	f.store.reminders[1] = orphan
	f.store.reminders[2] = ok

	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:00:00Z")))

	require.Len(t, f.channel.sent, 1)
	assert.Equal(t, int64(5), f.channel.sent[0].chatID)
	// The orphan keeps its schedule for a later fix-up.
	assert.Equal(t, utc("2024-01-01T09:00:00Z"), *f.store.reminders[1].NextRun)
	assert.False(t, f.store.reminders[1].IsPendingCompletion)
}

func TestDispatchDue_TransportFailureIsolated(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	f.addUser(6, "UTC")
	f.channel.failSendFor[5] = true
	f.store.reminders[1] = dailyReminder(1, 5)
	r2 := dailyReminder(2, 6)
	f.store.reminders[2] = r2

	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:00:00Z")))

	// Reminder 1 untouched so the next tick retries it; reminder 2 dispatched.
	assert.Equal(t, utc("2024-01-01T09:00:00Z"), *f.store.reminders[1].NextRun)
	assert.False(t, f.store.reminders[1].IsPendingCompletion)
	assert.Equal(t, utc("2024-01-02T09:00:00Z"), *f.store.reminders[2].NextRun)
	assert.True(t, f.store.reminders[2].IsPendingCompletion)
}

func TestDispatchDue_OneTimeReminderDeletedAfterSend(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	f.store.oneTime[3] = &models.OneTimeReminder{
		ID:      3,
		UserID:  5,
		Name:    "Take medicine",
		NextRun: timePtr(utc("2024-01-01T08:00:00Z")),
	}

	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:00:00Z")))

	require.Len(t, f.channel.sent, 1)
	assert.Equal(t, "Reminder: Take medicine", f.channel.sent[0].text)
	assert.Empty(t, f.channel.sent[0].buttons)
	assert.Empty(t, f.store.oneTime, "one-time reminders never reschedule")

	// A second tick must not resend.
	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:30:00Z")))
	assert.Len(t, f.channel.sent, 1)
}

func TestDispatchDue_OneTimeKeptOnTransportFailure(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	f.channel.failSendFor[5] = true
	f.store.oneTime[3] = &models.OneTimeReminder{
		ID:      3,
		UserID:  5,
		Name:    "Take medicine",
		NextRun: timePtr(utc("2024-01-01T08:00:00Z")),
	}

	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:00:00Z")))
	assert.Len(t, f.store.oneTime, 1, "kept for retry on the next tick")
}

func TestDispatchDue_WholeTickIsOneTransaction(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	f.store.reminders[1] = dailyReminder(1, 5)
	f.store.oneTime[2] = &models.OneTimeReminder{
		ID: 2, UserID: 5, Name: "x", NextRun: timePtr(utc("2024-01-01T08:00:00Z")),
	}

	require.NoError(t, f.svc.DispatchDue(context.Background(), utc("2024-01-01T09:00:00Z")))
	assert.Equal(t, 1, f.store.atomicCalls)
}

func TestMarkCompleted_NotFound(t *testing.T) {
	f := newFixture()
	completed, err := f.svc.MarkCompleted(context.Background(), 404, noncePtr(0), false, time.Time{})
	require.NoError(t, err)
	assert.Nil(t, completed)
	assert.Empty(t, f.store.completions)
}

func TestMarkCompleted_StaleNonceRejectedWithoutMutation(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	r.IsPendingCompletion = true
	f.store.reminders[1] = r
	before := *f.store.reminders[1]

	for i := 0; i < 2; i++ {
		completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(12345), false, time.Time{})
		require.NoError(t, err)
		assert.Nil(t, completed)
	}

	assert.Equal(t, before, *f.store.reminders[1], "stale confirmations must not mutate")
	assert.Empty(t, f.store.completions, "no double-recorded completion")
}

func TestMarkCompleted_ZeroNonceMatchesUnsetOnly(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")

	unset := dailyReminder(1, 5)
	unset.Nonce = nil
	f.store.reminders[1] = unset

	set := dailyReminder(2, 5)
	set.Nonce = noncePtr(9)
	f.store.reminders[2] = set

	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(0), false, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, completed, "0 reconciles against a never-rolled nonce")

	completed, err = f.svc.MarkCompleted(context.Background(), 2, noncePtr(0), false, time.Time{})
	require.NoError(t, err)
	assert.Nil(t, completed, "0 must not match a rolled nonce")
}

func TestMarkCompleted_Success(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	r.IsPendingCompletion = true
	f.store.reminders[1] = r

	completionTime := utc("2024-01-01T10:30:00Z")
	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(777), false, completionTime)
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, "Meditate", completed.Name)
	assert.False(t, completed.IsPendingCompletion, "returned reminder reflects the post-completion state")

	got := f.store.reminders[1]
	require.NotNil(t, got.LastRun)
	assert.Equal(t, completionTime, *got.LastRun)
	assert.False(t, got.IsPendingCompletion)
	require.NotNil(t, got.Nonce)
	assert.NotEqual(t, int32(777), *got.Nonce, "nonce must be re-rolled")
	require.NotNil(t, got.NextRun)
	assert.Equal(t, utc("2024-01-02T09:00:00Z"), *got.NextRun, "recomputed from the completion time")

	require.Len(t, f.store.completions, 1)
	assert.Equal(t, 1, f.store.completions[0].ReminderID)
	assert.Equal(t, completionTime, f.store.completions[0].CompletionTime)
}

func TestMarkCompleted_SkipRecordsNoHistory(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	f.store.reminders[1] = r

	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(777), true, utc("2024-01-01T10:30:00Z"))
	require.NoError(t, err)
	assert.NotNil(t, completed)
	assert.Empty(t, f.store.completions)
	assert.NotNil(t, f.store.reminders[1].LastRun, "a skip still advances last run")
}

func TestMarkCompleted_MinuteIntervalKeepsNextRun(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.ReminderMinutes = 15
	r.Nonce = noncePtr(777)
	r.NextRun = timePtr(utc("2024-01-01T09:15:00Z"))
	f.store.reminders[1] = r

	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(777), false, utc("2024-01-01T09:05:00Z"))
	require.NoError(t, err)
	assert.NotNil(t, completed)
	// Already set by the dispatcher at send time.
	assert.Equal(t, utc("2024-01-01T09:15:00Z"), *f.store.reminders[1].NextRun)
}

func TestMarkCompleted_NilNonceSkipsCheck(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	f.store.reminders[1] = r

	completed, err := f.svc.MarkCompleted(context.Background(), 1, nil, false, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, completed)
}

func TestMarkCompleted_DefaultsCompletionTimeToNow(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	now := utc("2024-03-05T17:45:00Z")
	f.clk.Set(now)
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	f.store.reminders[1] = r

	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(777), false, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, completed)
	assert.Equal(t, now, *f.store.reminders[1].LastRun)
}

func TestMarkCompleted_CleansUpOutstandingMessages(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	f.store.reminders[1] = r
	for _, msgID := range []int{11, 12, 13} {
		require.NoError(t, f.store.AddMessage(context.Background(), 1, msgID))
	}

	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(777), false, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, completed)

	assert.Empty(t, f.store.messages)
	require.Len(t, f.channel.deleted[5], 1)
	assert.ElementsMatch(t, []int{11, 12, 13}, f.channel.deleted[5][0])
}

func TestMarkCompleted_CleanupFailureDoesNotRevertCompletion(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	f.channel.failDelete = true
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	f.store.reminders[1] = r
	require.NoError(t, f.store.AddMessage(context.Background(), 1, 11))

	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(777), false, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, completed)
	assert.False(t, f.store.reminders[1].IsPendingCompletion)
}

func TestCleanupMessages_PaginatesByBatchLimit(t *testing.T) {
	f := newFixture()
	f.addUser(5, "UTC")
	r := dailyReminder(1, 5)
	r.Nonce = noncePtr(777)
	f.store.reminders[1] = r
	for i := 0; i < 250; i++ {
		require.NoError(t, f.store.AddMessage(context.Background(), 1, 1000+i))
	}

	completed, err := f.svc.MarkCompleted(context.Background(), 1, noncePtr(777), false, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, completed)

	batches := f.channel.deleted[5]
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)
	assert.Empty(t, f.store.messages)
}
