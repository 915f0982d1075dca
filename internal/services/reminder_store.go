package services

import (
	"context"
	"fmt"
	"time"

	"recoverydesk/internal/models"

	"gorm.io/gorm"
)

// SweepQueryMarker tags the sweep's selection queries so the SQL logger can
// leave them out.
const SweepQueryMarker = "/* reminder-sweep */"

const sqlDateLayout = "2006-01-02"

const dueCaseEventsSQL = SweepQueryMarker + `
SELECT ce.id, ce.case_id, ce.title,
       to_char(ce.event_date, 'YYYY-MM-DD') AS event_date,
       COALESCE(to_char(ce.event_time, 'HH24:MI'), '') AS event_time,
       COALESCE(ce.location, '') AS location,
       ce.reminder_days, ce.created_by,
       u.name AS creator_name,
       c.title AS case_title,
       COALESCE(c.case_number, '') AS case_number,
       cl.name AS client_name
FROM case_events ce
JOIN cases c ON ce.case_id = c.id
JOIN clients cl ON c.client_id = cl.id
JOIN users u ON ce.created_by = u.id
WHERE ce.reminder_sent = FALSE
  AND ce.event_date = CAST(? AS date) + ce.reminder_days
  AND ce.event_date >= CAST(? AS date)
ORDER BY ce.event_date, ce.id`

const dueTasksSQL = SweepQueryMarker + `
SELECT t.id, t.title,
       to_char(t.due_date, 'YYYY-MM-DD') AS due_date,
       t.assigned_to,
       COALESCE(u.name, '') AS assignee_name
FROM tasks t
LEFT JOIN users u ON t.assigned_to = u.id
WHERE t.status IN ('pending', 'in_progress')
  AND t.reminder_days IS NOT NULL
  AND t.assigned_to IS NOT NULL
  AND t.due_date <= CAST(? AS date) + t.reminder_days
  AND t.due_date >= CAST(? AS date)
ORDER BY t.due_date, t.id`

// GormReminderStore runs the sweep queries against postgres.
type GormReminderStore struct {
	db *gorm.DB
}

func NewGormReminderStore(db *gorm.DB) *GormReminderStore {
	return &GormReminderStore{db: db}
}

type caseEventRow struct {
	ID           uint
	CaseID       uint
	Title        string
	EventDate    string
	EventTime    string
	Location     string
	ReminderDays int
	CreatedBy    uint
	CreatorName  string
	CaseTitle    string
	CaseNumber   string
	ClientName   string
}

type taskRow struct {
	ID           uint
	Title        string
	DueDate      string
	AssignedTo   uint
	AssigneeName string
}

// Each statement is built by a helper taking the session, so the SQL sent for
// a given day can be rendered with gorm's ToSQL.

func selectDueCaseEvents(tx *gorm.DB, today time.Time, dest *[]caseEventRow) *gorm.DB {
	day := today.Format(sqlDateLayout)
	return tx.Raw(dueCaseEventsSQL, day, day).Find(dest)
}

func markReminderSent(tx *gorm.DB, eventID uint) *gorm.DB {
	return tx.Model(&models.CaseEvent{}).
		Where("id = ?", eventID).
		Update("reminder_sent", true)
}

func resetPastReminders(tx *gorm.DB, today time.Time) *gorm.DB {
	return tx.Model(&models.CaseEvent{}).
		Where("reminder_sent = ? AND event_date < CAST(? AS date)", true, today.Format(sqlDateLayout)).
		Update("reminder_sent", false)
}

func selectDueTasks(tx *gorm.DB, today time.Time, dest *[]taskRow) *gorm.DB {
	day := today.Format(sqlDateLayout)
	return tx.Raw(dueTasksSQL, day, day).Find(dest)
}

func (s *GormReminderStore) DueCaseEvents(ctx context.Context, today time.Time) ([]DueCaseEvent, error) {
	var rows []caseEventRow
	if err := selectDueCaseEvents(s.db.WithContext(ctx), today, &rows).Error; err != nil {
		return nil, err
	}

	events := make([]DueCaseEvent, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(sqlDateLayout, r.EventDate)
		if err != nil {
			return nil, fmt.Errorf("case event %d: %w", r.ID, err)
		}
		events = append(events, DueCaseEvent{
			ID:           r.ID,
			CaseID:       r.CaseID,
			Title:        r.Title,
			EventDate:    date,
			EventTime:    r.EventTime,
			Location:     r.Location,
			ReminderDays: r.ReminderDays,
			CreatedBy:    r.CreatedBy,
			CreatorName:  r.CreatorName,
			CaseTitle:    r.CaseTitle,
			CaseNumber:   r.CaseNumber,
			ClientName:   r.ClientName,
		})
	}
	return events, nil
}

func (s *GormReminderStore) MarkReminderSent(ctx context.Context, eventID uint) error {
	result := markReminderSent(s.db.WithContext(ctx), eventID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormReminderStore) ResetPastReminders(ctx context.Context, today time.Time) (int64, error) {
	result := resetPastReminders(s.db.WithContext(ctx), today)
	return result.RowsAffected, result.Error
}

func (s *GormReminderStore) DueTasks(ctx context.Context, today time.Time) ([]DueTask, error) {
	var rows []taskRow
	if err := selectDueTasks(s.db.WithContext(ctx), today, &rows).Error; err != nil {
		return nil, err
	}

	tasks := make([]DueTask, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(sqlDateLayout, r.DueDate)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", r.ID, err)
		}
		tasks = append(tasks, DueTask{
			ID:           r.ID,
			Title:        r.Title,
			DueDate:      date,
			AssignedTo:   r.AssignedTo,
			AssigneeName: r.AssigneeName,
		})
	}
	return tasks, nil
}
