package reminder

import (
	"context"
	"sync"
	"time"

	"trackerbot/internal/models"
)

// fakeStore is an in-memory Store. Atomically is pass-through; tests that care
// about transactional grouping count the calls.
type fakeStore struct {
	mu          sync.Mutex
	reminders   map[int]*models.Reminder
	oneTime     map[int]*models.OneTimeReminder
	completions []models.ReminderCompletion
	messages    []*models.ReminderMessage
	nextRowID   int
	atomicCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reminders: make(map[int]*models.Reminder),
		oneTime:   make(map[int]*models.OneTimeReminder),
		nextRowID: 1,
	}
}

func (f *fakeStore) GetReminder(_ context.Context, id int) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) DueReminders(_ context.Context, at time.Time) ([]*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*models.Reminder
	for _, r := range f.reminders {
		if r.NextRun == nil || r.NextRun.After(at) {
			continue
		}
		if r.StartDate != nil && r.StartDate.After(at) {
			continue
		}
		if r.EndDate != nil && r.EndDate.Before(at) {
			continue
		}
		cp := *r
		due = append(due, &cp)
	}
	return due, nil
}

func (f *fakeStore) UpdateReminderSchedule(_ context.Context, r *models.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.reminders[r.ID] = &cp
	return nil
}

func (f *fakeStore) AddCompletion(_ context.Context, reminderID int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, models.ReminderCompletion{
		ID:             f.nextRowID,
		ReminderID:     reminderID,
		CompletionTime: at,
	})
	f.nextRowID++
	return nil
}

func (f *fakeStore) AddMessage(_ context.Context, reminderID, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, &models.ReminderMessage{
		ID:         f.nextRowID,
		ReminderID: reminderID,
		MessageID:  messageID,
	})
	f.nextRowID++
	return nil
}

func (f *fakeStore) MessagesFor(_ context.Context, reminderID int) ([]*models.ReminderMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ReminderMessage
	for _, m := range f.messages {
		if m.ReminderID == reminderID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteMessages(_ context.Context, ids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.messages[:0]
	for _, m := range f.messages {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

func (f *fakeStore) DueOneTimeReminders(_ context.Context, at time.Time) ([]*models.OneTimeReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*models.OneTimeReminder
	for _, r := range f.oneTime {
		if r.NextRun != nil && !r.NextRun.After(at) {
			cp := *r
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (f *fakeStore) DeleteOneTimeReminder(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.oneTime, id)
	return nil
}

func (f *fakeStore) Atomically(ctx context.Context, fn func(Store) error) error {
	f.mu.Lock()
	f.atomicCalls++
	f.mu.Unlock()
	return fn(f)
}

type fakeDirectory struct {
	users map[int64]*models.User
}

func (f *fakeDirectory) Resolve(_ context.Context, userID int64) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

type sentMessage struct {
	chatID  int64
	text    string
	buttons []Button
}

type fakeChannel struct {
	mu            sync.Mutex
	sent          []sentMessage
	deleted       map[int64][][]int
	failSendFor   map[int64]bool
	failDelete    bool
	nextMessageID int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		deleted:       make(map[int64][][]int),
		failSendFor:   make(map[int64]bool),
		nextMessageID: 1000,
	}
}

func (f *fakeChannel) Send(_ context.Context, chatID int64, text string, buttons []Button) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSendFor[chatID] {
		return 0, errTransport
	}
	f.nextMessageID++
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, buttons: buttons})
	return f.nextMessageID, nil
}

func (f *fakeChannel) DeleteMessages(_ context.Context, chatID int64, messageIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errTransport
	}
	f.deleted[chatID] = append(f.deleted[chatID], messageIDs)
	return nil
}
