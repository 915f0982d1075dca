package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"recoverydesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memEvent struct {
	DueCaseEvent
	sent bool
}

type memTask struct {
	DueTask
	status       models.TaskStatus
	reminderDays *int
	assigned     bool
}

// memReminderStore evaluates the sweep predicates over in-memory rows.
type memReminderStore struct {
	mu       sync.Mutex
	events   []*memEvent
	tasks    []*memTask
	eventErr error
	taskErr  error
	markErr  map[uint]error
}

func (s *memReminderStore) DueCaseEvents(_ context.Context, today time.Time) ([]DueCaseEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventErr != nil {
		return nil, s.eventErr
	}
	var out []DueCaseEvent
	for _, e := range s.events {
		if e.sent || e.EventDate.Before(today) {
			continue
		}
		if e.EventDate.Equal(today.AddDate(0, 0, e.ReminderDays)) {
			out = append(out, e.DueCaseEvent)
		}
	}
	return out, nil
}

func (s *memReminderStore) MarkReminderSent(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	for _, e := range s.events {
		if e.ID == id {
			e.sent = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *memReminderStore) ResetPastReminders(_ context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.events {
		if e.sent && e.EventDate.Before(today) {
			e.sent = false
			n++
		}
	}
	return n, nil
}

func (s *memReminderStore) DueTasks(_ context.Context, today time.Time) ([]DueTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taskErr != nil {
		return nil, s.taskErr
	}
	var out []DueTask
	for _, t := range s.tasks {
		if t.status != models.TaskPending && t.status != models.TaskInProgress {
			continue
		}
		if t.reminderDays == nil || !t.assigned || t.DueDate.Before(today) {
			continue
		}
		if !t.DueDate.After(today.AddDate(0, 0, *t.reminderDays)) {
			out = append(out, t.DueTask)
		}
	}
	return out, nil
}

func (s *memReminderStore) isSent(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e.sent
		}
	}
	return false
}

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []models.Notification
	failFor map[uint]bool
}

func (n *recordingNotifier) Notify(_ context.Context, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[notification.UserID] {
		return errors.New("insert failed")
	}
	n.sent = append(n.sent, notification)
	return nil
}

type fakeLocker struct {
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(context.Context, string) error {
	l.held = false
	l.unlocked++
	return nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func intPtr(v int) *int { return &v }

func newSweep(store ReminderStore, notifier Notifier, today string, opts ...SweepOption) *ReminderSweep {
	clock := func() time.Time { return day(today).Add(8 * time.Hour) }
	opts = append([]SweepOption{WithClock(clock), WithLocation(time.UTC)}, opts...)
	return NewReminderSweep(store, notifier, zap.NewNop(), opts...)
}

func hearing(id uint, date string, reminderDays int) *memEvent {
	return &memEvent{DueCaseEvent: DueCaseEvent{
		ID:           id,
		CaseID:       3,
		Title:        "Hearing",
		EventDate:    day(date),
		EventTime:    "09:30",
		Location:     "Court A",
		ReminderDays: reminderDays,
		CreatedBy:    5,
		CreatorName:  "Sami",
		CaseTitle:    "Acme v. X",
		CaseNumber:   "2025/12",
		ClientName:   "Acme",
	}}
}

func TestCaseEventReminderOnExactOffset(t *testing.T) {
	store := &memReminderStore{events: []*memEvent{hearing(1, "2025-03-17", 7)}}
	notifier := &recordingNotifier{}

	res := newSweep(store, notifier, "2025-03-10").RunOnce(context.Background())

	require.NoError(t, res.CaseErr)
	assert.Equal(t, 1, res.Cases.Found)
	assert.Equal(t, 1, res.Cases.Notified)
	require.Len(t, notifier.sent, 1)

	n := notifier.sent[0]
	assert.Equal(t, uint(5), n.UserID)
	assert.Equal(t, CaseEventReminderTitle, n.Title)
	assert.Equal(t, "/cases/3", n.Link)
	assert.Contains(t, n.Message, "Date: 17/03/2025")
	assert.Contains(t, n.Message, "Case: Acme v. X (#2025/12)")
	assert.Contains(t, n.Message, "Time: 09:30")
	assert.Contains(t, n.Message, "7 day(s) before")
	assert.True(t, store.isSent(1))
}

func TestCaseEventReminderOnlyOnExactDay(t *testing.T) {
	store := &memReminderStore{events: []*memEvent{hearing(1, "2025-03-17", 7)}}
	notifier := &recordingNotifier{}

	for _, today := range []string{"2025-03-09", "2025-03-11", "2025-03-16"} {
		newSweep(store, notifier, today).RunOnce(context.Background())
	}

	assert.Empty(t, notifier.sent)
	assert.False(t, store.isSent(1))
}

func TestCaseEventReminderIsSentOnce(t *testing.T) {
	store := &memReminderStore{events: []*memEvent{hearing(1, "2025-03-17", 7)}}
	notifier := &recordingNotifier{}

	sweep := newSweep(store, notifier, "2025-03-10")
	sweep.RunOnce(context.Background())
	res := sweep.RunOnce(context.Background())

	assert.Equal(t, 0, res.Cases.Found)
	assert.Len(t, notifier.sent, 1)
}

func TestSameDayEventWithZeroReminderDays(t *testing.T) {
	store := &memReminderStore{events: []*memEvent{hearing(1, "2025-03-10", 0)}}
	notifier := &recordingNotifier{}

	newSweep(store, notifier, "2025-03-10").RunOnce(context.Background())

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].Message, "0 day(s) before")
}

func TestPastRemindersAreReset(t *testing.T) {
	past := hearing(1, "2025-03-05", 7)
	past.sent = true
	upcoming := hearing(2, "2025-03-20", 7)
	upcoming.sent = true
	store := &memReminderStore{events: []*memEvent{past, upcoming}}

	res := newSweep(store, &recordingNotifier{}, "2025-03-10").RunOnce(context.Background())

	assert.Equal(t, int64(1), res.Cases.Reset)
	assert.False(t, store.isSent(1))
	assert.True(t, store.isSent(2))
}

func TestResetEventIsNeverNotifiedAgain(t *testing.T) {
	past := hearing(1, "2025-03-05", 7)
	past.sent = true
	store := &memReminderStore{events: []*memEvent{past}}
	notifier := &recordingNotifier{}

	sweep := newSweep(store, notifier, "2025-03-10")
	sweep.RunOnce(context.Background())
	sweep.RunOnce(context.Background())

	assert.Empty(t, notifier.sent)
}

func TestCaseEventFailureDoesNotStopOthers(t *testing.T) {
	failing := hearing(1, "2025-03-17", 7)
	failing.CreatedBy = 99
	ok := hearing(2, "2025-03-17", 7)
	store := &memReminderStore{events: []*memEvent{failing, ok}}
	notifier := &recordingNotifier{failFor: map[uint]bool{99: true}}

	res := newSweep(store, notifier, "2025-03-10").RunOnce(context.Background())

	assert.Equal(t, 1, res.Cases.Failed)
	assert.Equal(t, 1, res.Cases.Notified)
	assert.False(t, store.isSent(1))
	assert.True(t, store.isSent(2))
}

func TestMarkFailureLeavesEventEligible(t *testing.T) {
	store := &memReminderStore{
		events:  []*memEvent{hearing(1, "2025-03-17", 7)},
		markErr: map[uint]error{1: errors.New("connection reset")},
	}
	notifier := &recordingNotifier{}

	sweep := newSweep(store, notifier, "2025-03-10")
	res := sweep.RunOnce(context.Background())
	assert.Equal(t, 1, res.Cases.Failed)

	delete(store.markErr, 1)
	sweep.RunOnce(context.Background())

	assert.Len(t, notifier.sent, 2)
	assert.True(t, store.isSent(1))
}

func TestTaskReminderInsideWindow(t *testing.T) {
	store := &memReminderStore{tasks: []*memTask{{
		DueTask:      DueTask{ID: 8, Title: "Call debtor", DueDate: day("2025-03-12"), AssignedTo: 4},
		status:       models.TaskPending,
		reminderDays: intPtr(3),
		assigned:     true,
	}}}
	notifier := &recordingNotifier{}

	res := newSweep(store, notifier, "2025-03-10").RunOnce(context.Background())

	assert.Equal(t, 1, res.Tasks.Notified)
	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, uint(4), n.UserID)
	assert.Equal(t, TaskReminderTitle, n.Title)
	assert.Equal(t, `Task "Call debtor" is due on 12/03/2025`, n.Message)
	assert.Equal(t, "/tasks/8", n.Link)
}

func TestTaskReminderLogsAssignee(t *testing.T) {
	store := &memReminderStore{tasks: []*memTask{{
		DueTask:      DueTask{ID: 8, Title: "Call debtor", DueDate: day("2025-03-12"), AssignedTo: 4, AssigneeName: "Nadia"},
		status:       models.TaskPending,
		reminderDays: intPtr(3),
		assigned:     true,
	}}}
	core, logs := observer.New(zapcore.DebugLevel)
	sweep := NewReminderSweep(store, &recordingNotifier{}, zap.New(core),
		WithClock(func() time.Time { return day("2025-03-10") }), WithLocation(time.UTC))

	_, err := sweep.CheckTaskReminders(context.Background(), day("2025-03-10"))
	require.NoError(t, err)

	sent := logs.FilterMessage("sent task reminder").All()
	require.Len(t, sent, 1)
	fields := sent[0].ContextMap()
	assert.Equal(t, "Nadia", fields["assignee"])
	assert.Equal(t, "Call debtor", fields["task"])
	assert.Equal(t, uint64(8), fields["task_id"])
}

func TestTaskReminderRepeatsEachCycle(t *testing.T) {
	store := &memReminderStore{tasks: []*memTask{{
		DueTask:      DueTask{ID: 8, Title: "Call debtor", DueDate: day("2025-03-12"), AssignedTo: 4},
		status:       models.TaskInProgress,
		reminderDays: intPtr(3),
		assigned:     true,
	}}}
	notifier := &recordingNotifier{}

	for _, today := range []string{"2025-03-09", "2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13"} {
		newSweep(store, notifier, today).RunOnce(context.Background())
	}

	assert.Len(t, notifier.sent, 4)
}

func TestTaskReminderSkipsClosedAndUnassigned(t *testing.T) {
	due := day("2025-03-11")
	store := &memReminderStore{tasks: []*memTask{
		{DueTask: DueTask{ID: 1, DueDate: due, AssignedTo: 4}, status: models.TaskCompleted, reminderDays: intPtr(3), assigned: true},
		{DueTask: DueTask{ID: 2, DueDate: due, AssignedTo: 4}, status: models.TaskCancelled, reminderDays: intPtr(3), assigned: true},
		{DueTask: DueTask{ID: 3, DueDate: due}, status: models.TaskPending, reminderDays: intPtr(3)},
		{DueTask: DueTask{ID: 4, DueDate: due, AssignedTo: 4}, status: models.TaskPending, assigned: true},
	}}
	notifier := &recordingNotifier{}

	res := newSweep(store, notifier, "2025-03-10").RunOnce(context.Background())

	assert.Equal(t, 0, res.Tasks.Found)
	assert.Empty(t, notifier.sent)
}

func TestFailedCasePassDoesNotBlockTasks(t *testing.T) {
	store := &memReminderStore{
		eventErr: errors.New("relation does not exist"),
		tasks: []*memTask{{
			DueTask:      DueTask{ID: 8, Title: "Call debtor", DueDate: day("2025-03-10"), AssignedTo: 4},
			status:       models.TaskPending,
			reminderDays: intPtr(3),
			assigned:     true,
		}},
	}
	notifier := &recordingNotifier{}

	res := newSweep(store, notifier, "2025-03-10").RunOnce(context.Background())

	assert.Error(t, res.CaseErr)
	assert.NoError(t, res.TaskErr)
	assert.Equal(t, 1, res.Tasks.Notified)
}

func TestFailedTaskPassAfterCasePass(t *testing.T) {
	store := &memReminderStore{
		events:  []*memEvent{hearing(1, "2025-03-17", 7)},
		taskErr: errors.New("timeout"),
	}
	notifier := &recordingNotifier{}

	res := newSweep(store, notifier, "2025-03-10").RunOnce(context.Background())

	assert.NoError(t, res.CaseErr)
	assert.Error(t, res.TaskErr)
	assert.Len(t, notifier.sent, 1)
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	store := &memReminderStore{events: []*memEvent{hearing(1, "2025-03-17", 7)}}
	notifier := &recordingNotifier{}
	locker := &fakeLocker{held: true}

	res := newSweep(store, notifier, "2025-03-10", WithLocker(locker, time.Minute)).RunOnce(context.Background())

	assert.True(t, res.Skipped)
	assert.Empty(t, notifier.sent)
	assert.Equal(t, 0, locker.unlocked)
}

func TestSweepReleasesLock(t *testing.T) {
	locker := &fakeLocker{}
	sweep := newSweep(&memReminderStore{}, &recordingNotifier{}, "2025-03-10", WithLocker(locker, time.Minute))

	res := sweep.RunOnce(context.Background())

	assert.False(t, res.Skipped)
	assert.False(t, locker.held)
	assert.Equal(t, 1, locker.unlocked)
}

func TestSweepSkipsOnLockError(t *testing.T) {
	locker := &fakeLocker{err: errors.New("redis down")}
	notifier := &recordingNotifier{}
	store := &memReminderStore{events: []*memEvent{hearing(1, "2025-03-17", 7)}}

	res := newSweep(store, notifier, "2025-03-10", WithLocker(locker, time.Minute)).RunOnce(context.Background())

	assert.True(t, res.Skipped)
	assert.Empty(t, notifier.sent)
}

func TestTodayUsesConfiguredZone(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	// 23:30 UTC on the 9th is already the 10th at UTC+1.
	clock := func() time.Time { return time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC) }
	sweep := NewReminderSweep(&memReminderStore{}, &recordingNotifier{}, zap.NewNop(), WithClock(clock), WithLocation(loc))

	assert.Equal(t, day("2025-03-10"), sweep.Today())
}

func TestCaseEventReminderMessageDefaults(t *testing.T) {
	msg := CaseEventReminderMessage(DueCaseEvent{
		Title:        "Filing deadline",
		EventDate:    day("2025-04-01"),
		ReminderDays: 3,
		CaseTitle:    "Acme v. Y",
		ClientName:   "Acme",
	})

	lines := strings.Split(msg, "\n")
	assert.Equal(t, "Case event reminder", lines[0])
	assert.Contains(t, lines, "Case: Acme v. Y")
	assert.Contains(t, lines, "Time: unspecified")
	assert.Contains(t, lines, "Location: unspecified")
	assert.Equal(t, "This reminder is sent 3 day(s) before the event.", lines[len(lines)-1])
}
