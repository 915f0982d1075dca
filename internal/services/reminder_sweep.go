package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recoverydesk/internal/models"

	"go.uber.org/zap"
)

const (
	// SweepLockKey guards a full reminder cycle when a Locker is configured.
	SweepLockKey = "reminder-sweep"

	CaseEventReminderTitle = "Case event reminder"
	TaskReminderTitle      = "Task reminder"

	displayDateLayout = "02/01/2006"
	unspecified       = "unspecified"
)

// DueCaseEvent is a case event whose reminder window opens today, joined
// with what the reminder message needs.
type DueCaseEvent struct {
	ID           uint
	CaseID       uint
	Title        string
	EventDate    time.Time
	EventTime    string // HH:MM, empty when unset
	Location     string
	ReminderDays int
	CreatedBy    uint
	CreatorName  string
	CaseTitle    string
	CaseNumber   string
	ClientName   string
}

// DueTask is an open task whose due date is inside its reminder window.
type DueTask struct {
	ID           uint
	Title        string
	DueDate      time.Time
	AssignedTo   uint
	AssigneeName string
}

// ReminderStore holds the sweep's queries. Dates are civil dates at UTC
// midnight; "today" is always supplied by the caller.
type ReminderStore interface {
	DueCaseEvents(ctx context.Context, today time.Time) ([]DueCaseEvent, error)
	MarkReminderSent(ctx context.Context, eventID uint) error
	ResetPastReminders(ctx context.Context, today time.Time) (int64, error)
	DueTasks(ctx context.Context, today time.Time) ([]DueTask, error)
}

// Locker is a best-effort distributed mutex.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// CasePassResult summarises one case event pass.
type CasePassResult struct {
	Found    int
	Notified int
	Failed   int
	Reset    int64
}

// TaskPassResult summarises one task pass.
type TaskPassResult struct {
	Found    int
	Notified int
	Failed   int
}

// SweepResult is what one RunOnce did.
type SweepResult struct {
	Today   time.Time
	Skipped bool
	Cases   CasePassResult
	Tasks   TaskPassResult
	CaseErr error
	TaskErr error
}

// ReminderSweep emits case event and task reminders. It runs the two passes
// sequentially and never returns per-item failures; they are logged.
type ReminderSweep struct {
	store    ReminderStore
	notifier Notifier
	locker   Locker
	lockTTL  time.Duration
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

type SweepOption func(*ReminderSweep)

// WithLocker wraps every cycle in a lock held for at most ttl.
func WithLocker(l Locker, ttl time.Duration) SweepOption {
	return func(s *ReminderSweep) {
		s.locker = l
		s.lockTTL = ttl
	}
}

func WithClock(now func() time.Time) SweepOption {
	return func(s *ReminderSweep) { s.now = now }
}

// WithLocation sets the zone "today" is computed in.
func WithLocation(loc *time.Location) SweepOption {
	return func(s *ReminderSweep) { s.loc = loc }
}

func NewReminderSweep(store ReminderStore, notifier Notifier, log *zap.Logger, opts ...SweepOption) *ReminderSweep {
	s := &ReminderSweep{
		store:    store,
		notifier: notifier,
		lockTTL:  10 * time.Minute,
		loc:      time.Local,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current civil date in the sweep's zone, at UTC midnight.
func (s *ReminderSweep) Today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RunOnce runs the case event pass then the task pass. A failing selection
// query only aborts its own pass.
func (s *ReminderSweep) RunOnce(ctx context.Context) SweepResult {
	result := SweepResult{Today: s.Today()}

	if s.locker != nil {
		acquired, err := s.locker.TryLock(ctx, SweepLockKey, s.lockTTL)
		if err != nil {
			s.log.Error("failed to acquire reminder lock, skipping cycle", zap.Error(err))
			result.Skipped = true
			return result
		}
		if !acquired {
			s.log.Info("reminder sweep already running elsewhere, skipping cycle")
			result.Skipped = true
			return result
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), SweepLockKey); err != nil {
				s.log.Warn("failed to release reminder lock", zap.Error(err))
			}
		}()
	}

	s.log.Info("starting reminder sweep", zap.String("today", result.Today.Format("2006-01-02")))

	result.Cases, result.CaseErr = s.CheckCaseReminders(ctx, result.Today)
	if result.CaseErr != nil {
		s.log.Error("case event reminder pass failed", zap.Error(result.CaseErr))
	}

	result.Tasks, result.TaskErr = s.CheckTaskReminders(ctx, result.Today)
	if result.TaskErr != nil {
		s.log.Error("task reminder pass failed", zap.Error(result.TaskErr))
	}

	s.log.Info("reminder sweep completed",
		zap.Int("events_found", result.Cases.Found),
		zap.Int("events_notified", result.Cases.Notified),
		zap.Int("events_failed", result.Cases.Failed),
		zap.Int64("events_reset", result.Cases.Reset),
		zap.Int("tasks_found", result.Tasks.Found),
		zap.Int("tasks_notified", result.Tasks.Notified),
		zap.Int("tasks_failed", result.Tasks.Failed),
	)
	return result
}

// CheckCaseReminders notifies the creator of every event due for a reminder
// and flags it, then clears the flag on every event already in the past.
func (s *ReminderSweep) CheckCaseReminders(ctx context.Context, today time.Time) (CasePassResult, error) {
	var res CasePassResult

	events, err := s.store.DueCaseEvents(ctx, today)
	if err != nil {
		return res, fmt.Errorf("select due case events: %w", err)
	}
	res.Found = len(events)
	s.log.Info("found case events needing reminders", zap.Int("count", res.Found))

	for _, event := range events {
		n := models.Notification{
			UserID:  event.CreatedBy,
			Title:   CaseEventReminderTitle,
			Message: CaseEventReminderMessage(event),
			Link:    fmt.Sprintf("/cases/%d", event.CaseID),
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			res.Failed++
			s.log.Error("failed to send case event reminder", zap.Uint("event_id", event.ID), zap.Error(err))
			continue
		}
		// A failure here leaves the flag unset and the next matching cycle
		// notifies again.
		if err := s.store.MarkReminderSent(ctx, event.ID); err != nil {
			res.Failed++
			s.log.Error("failed to flag case event reminder", zap.Uint("event_id", event.ID), zap.Error(err))
			continue
		}
		res.Notified++
		s.log.Info("sent case event reminder",
			zap.Uint("event_id", event.ID),
			zap.String("event", event.Title),
			zap.String("user", event.CreatorName),
		)
	}

	reset, err := s.store.ResetPastReminders(ctx, today)
	if err != nil {
		return res, fmt.Errorf("reset past reminders: %w", err)
	}
	res.Reset = reset
	if reset > 0 {
		s.log.Info("reset past event reminders", zap.Int64("affected", reset))
	}
	return res, nil
}

// CheckTaskReminders notifies the assignee of every open task inside its
// reminder window. Nothing is recorded, so a task is re-notified every cycle
// until it is due, completed or cancelled.
func (s *ReminderSweep) CheckTaskReminders(ctx context.Context, today time.Time) (TaskPassResult, error) {
	var res TaskPassResult

	tasks, err := s.store.DueTasks(ctx, today)
	if err != nil {
		return res, fmt.Errorf("select due tasks: %w", err)
	}
	res.Found = len(tasks)

	for _, task := range tasks {
		n := models.Notification{
			UserID:  task.AssignedTo,
			Title:   TaskReminderTitle,
			Message: TaskReminderMessage(task),
			Link:    fmt.Sprintf("/tasks/%d", task.ID),
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			res.Failed++
			s.log.Error("failed to send task reminder", zap.Uint("task_id", task.ID), zap.Error(err))
			continue
		}
		res.Notified++
		s.log.Debug("sent task reminder",
			zap.Uint("task_id", task.ID),
			zap.String("task", task.Title),
			zap.String("assignee", task.AssigneeName),
		)
	}
	s.log.Info("sent task reminders", zap.Int("count", res.Notified))
	return res, nil
}

// CaseEventReminderMessage renders the body of a case event reminder.
func CaseEventReminderMessage(e DueCaseEvent) string {
	caseLine := e.CaseTitle
	if e.CaseNumber != "" {
		caseLine = fmt.Sprintf("%s (#%s)", e.CaseTitle, e.CaseNumber)
	}

	var b strings.Builder
	b.WriteString("Case event reminder\n\n")
	fmt.Fprintf(&b, "Event: %s\n", e.Title)
	fmt.Fprintf(&b, "Case: %s\n", caseLine)
	fmt.Fprintf(&b, "Client: %s\n", e.ClientName)
	fmt.Fprintf(&b, "Date: %s\n", e.EventDate.Format(displayDateLayout))
	fmt.Fprintf(&b, "Time: %s\n", orUnspecified(e.EventTime))
	fmt.Fprintf(&b, "Location: %s\n\n", orUnspecified(e.Location))
	fmt.Fprintf(&b, "This reminder is sent %d day(s) before the event.", e.ReminderDays)
	return b.String()
}

// TaskReminderMessage renders the body of a task reminder.
func TaskReminderMessage(t DueTask) string {
	return fmt.Sprintf("Task %q is due on %s", t.Title, t.DueDate.Format(displayDateLayout))
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return unspecified
	}
	return s
}
