// Package builder captures a one-time reminder through a short per-chat
// conversation: one message for the name, one for a natural-language time.
// Sessions live only in memory; a restart drops in-flight builders.
package builder

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"trackerbot/internal/models"
	"trackerbot/internal/reminder"
	"trackerbot/internal/timeutil"
)

var (
	// ErrSessionOpen is returned when a chat already has a builder open.
	ErrSessionOpen = errors.New("a reminder is already being created for this chat")
	// ErrNoSession is returned when Advance is called for a chat with no builder.
	ErrNoSession = errors.New("no reminder is being created for this chat")
)

type State int

const (
	StateAwaitingName State = iota
	StateAwaitingTime
)

// Result tells the caller what happened and what to prompt next.
type Result int

const (
	ResultAskTime     Result = iota // name accepted, ask when to remind
	ResultEmptyName                 // name rejected, still awaiting a name
	ResultParseFailed               // time not understood, still awaiting a time
	ResultSaved                     // reminder created, session closed
)

type Store interface {
	CreateOneTimeReminder(ctx context.Context, r *models.OneTimeReminder) error
}

type session struct {
	state State
	name  string
}

// Service owns the per-chat sessions. Map access is guarded for concurrent
// chats; messages within one chat are processed in arrival order by the
// single-consumer update drain.
type Service struct {
	mu       sync.Mutex
	sessions map[int64]*session

	store  Store
	users  reminder.Directory
	clk    clock.Clock
	parser *when.Parser
	log    *zap.SugaredLogger
}

func NewService(store Store, users reminder.Directory, clk clock.Clock, log *zap.SugaredLogger) *Service {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &Service{
		sessions: make(map[int64]*session),
		store:    store,
		users:    users,
		clk:      clk,
		parser:   w,
		log:      log,
	}
}

// Start opens a builder for the chat. A chat can only have one open builder;
// starting another is rejected rather than overwriting it.
func (s *Service) Start(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, open := s.sessions[chatID]; open {
		return ErrSessionOpen
	}
	s.sessions[chatID] = &session{state: StateAwaitingName}
	return nil
}

// Active reports whether the chat has an open builder.
func (s *Service) Active(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, open := s.sessions[chatID]
	return open
}

// Cancel discards the chat's builder, reporting whether one existed.
func (s *Service) Cancel(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, open := s.sessions[chatID]
	delete(s.sessions, chatID)
	return open
}

// Advance feeds the next free-text message into the chat's builder. On
// ResultSaved the created reminder is returned and the builder is removed.
func (s *Service) Advance(ctx context.Context, chatID int64, text string) (Result, *models.OneTimeReminder, error) {
	s.mu.Lock()
	sess, open := s.sessions[chatID]
	s.mu.Unlock()
	if !open {
		return 0, nil, ErrNoSession
	}

	switch sess.state {
	case StateAwaitingName:
		if strings.TrimSpace(text) == "" {
			return ResultEmptyName, nil, nil
		}
		// The message text becomes the name verbatim.
		sess.name = text
		sess.state = StateAwaitingTime
		return ResultAskTime, nil, nil

	case StateAwaitingTime:
		user, err := s.users.Resolve(ctx, chatID)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "failed to resolve user for chat %d", chatID)
		}
		loc, err := timeutil.Location(user.Timezone)
		if err != nil {
			s.log.Warnw("failed to load user timezone", "user", user.UserID, "err", err)
		}

		localNow := s.clk.Now().In(loc)
		at, ok := s.parseTime(text, localNow)
		if !ok {
			// The session stays put so the user can rephrase.
			return ResultParseFailed, nil, nil
		}

		utcAt := at.UTC()
		created := &models.OneTimeReminder{
			UserID:    user.UserID,
			Name:      sess.name,
			NextRun:   &utcAt,
			CreatedAt: s.clk.Now().UTC(),
		}
		if err := s.store.CreateOneTimeReminder(ctx, created); err != nil {
			return 0, nil, errors.Wrap(err, "failed to save one-time reminder")
		}

		s.mu.Lock()
		delete(s.sessions, chatID)
		s.mu.Unlock()
		s.log.Infow("one-time reminder created", "user", user.UserID, "at", utcAt)
		return ResultSaved, created, nil
	}

	return 0, nil, errors.Errorf("builder state %d not implemented", sess.state)
}

// parseTime resolves a natural-language expression against the user's local
// now, biased toward the future: a time-of-day that already passed today
// resolves to the next day.
func (s *Service) parseTime(text string, localNow time.Time) (time.Time, bool) {
	r, err := s.parser.Parse(text, localNow)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	at := r.Time
	if at.Before(localNow) {
		at = at.Add(24 * time.Hour)
	}
	if at.Before(localNow) {
		return time.Time{}, false
	}
	return at, true
}
