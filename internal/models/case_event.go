package models

import (
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	EventHearing    EventType = "hearing"
	EventSubmission EventType = "submission"
	EventMeeting    EventType = "meeting"
	EventDeadline   EventType = "deadline"
	EventOther      EventType = "other"
)

// EventTypeFrom maps unknown values to EventOther.
func EventTypeFrom(s string) EventType {
	switch EventType(s) {
	case EventHearing, EventSubmission, EventMeeting, EventDeadline:
		return EventType(s)
	default:
		return EventOther
	}
}

// DefaultEventReminderDays is the lead time used when an event is created without one.
const DefaultEventReminderDays = 7

// CaseEvent is a dated step in a case (hearing, filing deadline...).
// ReminderSent is set by the reminder sweep once the creator has been
// notified and cleared again by the sweep after the event date passes.
type CaseEvent struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CaseID       uint            `gorm:"not null;index" json:"case_id"`
	EventType    EventType       `gorm:"type:varchar(20);not null;default:other" json:"event_type"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	EventDate    datatypes.Date  `gorm:"not null;index" json:"event_date"`
	EventTime    *datatypes.Time `json:"event_time,omitempty"`
	Location     string          `gorm:"size:255" json:"location,omitempty"`
	Address      string          `gorm:"type:text" json:"address,omitempty"`
	Geo          *GeoPoint       `gorm:"type:jsonb" json:"geo,omitempty"`
	ReminderDays int             `gorm:"not null;default:7" json:"reminder_days"`
	ReminderSent bool            `gorm:"not null;default:false;index" json:"reminder_sent"`
	CreatedBy    uint            `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (CaseEvent) TableName() string {
	return "case_events"
}

type CreateCaseEventRequest struct {
	CaseID       uint     `json:"case_id" binding:"required"`
	EventType    string   `json:"event_type" binding:"omitempty,oneof=hearing submission meeting deadline other"`
	Title        string   `json:"title" binding:"required,max=255"`
	Description  string   `json:"description"`
	EventDate    string   `json:"event_date" binding:"required,datetime=2006-01-02"`
	EventTime    string   `json:"event_time" binding:"omitempty,datetime=15:04"`
	Location     string   `json:"location" binding:"omitempty,max=255"`
	Address      string   `json:"address"`
	Lat          *float64 `json:"lat" binding:"omitempty,latitude"`
	Lng          *float64 `json:"lng" binding:"omitempty,longitude"`
	ReminderDays *int     `json:"reminder_days" binding:"omitempty,gte=0,lte=365"`
}

type CaseEventView struct {
	CaseEvent
	CreatedByName string `json:"created_by_name,omitempty"`
}
