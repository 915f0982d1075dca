package models

import "time"

type CaseType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedBy   *uint     `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CaseType) TableName() string {
	return "case_types"
}

// Case is a court matter opened for a client, tied to one recovery file.
type Case struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ClientID     uint      `gorm:"not null;index" json:"client_id"`
	FileID       uint      `gorm:"not null;index" json:"file_id"`
	CaseTypeID   *uint     `gorm:"index" json:"case_type_id,omitempty"`
	CaseNumber   string    `gorm:"size:100" json:"case_number,omitempty"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	CourtName    string    `gorm:"size:255" json:"court_name,omitempty"`
	CourtAddress string    `gorm:"type:text" json:"court_address,omitempty"`
	CourtGeo     *GeoPoint `gorm:"type:jsonb" json:"court_geo,omitempty"`
	Status       string    `gorm:"size:50;default:open" json:"status"`
	Priority     string    `gorm:"size:20;default:medium" json:"priority"`
	CreatedBy    *uint     `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Case) TableName() string {
	return "cases"
}

type CreateCaseTypeRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

type CreateCaseRequest struct {
	ClientID     uint     `json:"client_id" binding:"required"`
	FileID       uint     `json:"file_id" binding:"required"`
	CaseTypeID   *uint    `json:"case_type_id"`
	CaseNumber   string   `json:"case_number" binding:"omitempty,max=100"`
	Title        string   `json:"title" binding:"required,max=255"`
	Description  string   `json:"description"`
	CourtName    string   `json:"court_name" binding:"omitempty,max=255"`
	CourtAddress string   `json:"court_address"`
	CourtLat     *float64 `json:"court_lat" binding:"omitempty,latitude"`
	CourtLng     *float64 `json:"court_lng" binding:"omitempty,longitude"`
	Status       string   `json:"status" binding:"omitempty,max=50"`
	Priority     string   `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// UpdateCaseRequest is a partial update; nil fields are left untouched.
type UpdateCaseRequest struct {
	CaseTypeID   *uint    `json:"case_type_id"`
	CaseNumber   *string  `json:"case_number" binding:"omitempty,max=100"`
	Title        *string  `json:"title" binding:"omitempty,min=1,max=255"`
	Description  *string  `json:"description"`
	CourtName    *string  `json:"court_name" binding:"omitempty,max=255"`
	CourtAddress *string  `json:"court_address"`
	CourtLat     *float64 `json:"court_lat" binding:"omitempty,latitude"`
	CourtLng     *float64 `json:"court_lng" binding:"omitempty,longitude"`
	Status       *string  `json:"status" binding:"omitempty,max=50"`
	Priority     *string  `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// Updates returns the column map for the fields that were provided.
func (r UpdateCaseRequest) Updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if r.CaseTypeID != nil {
		updates["case_type_id"] = *r.CaseTypeID
	}
	if r.CaseNumber != nil {
		updates["case_number"] = *r.CaseNumber
	}
	if r.Title != nil {
		updates["title"] = *r.Title
	}
	if r.Description != nil {
		updates["description"] = *r.Description
	}
	if r.CourtName != nil {
		updates["court_name"] = *r.CourtName
	}
	if r.CourtAddress != nil {
		updates["court_address"] = *r.CourtAddress
	}
	if geo := GeoPointFrom(r.CourtLat, r.CourtLng); geo != nil {
		updates["court_geo"] = *geo
	}
	if r.Status != nil {
		updates["status"] = *r.Status
	}
	if r.Priority != nil {
		updates["priority"] = *r.Priority
	}
	return updates
}

// CaseView is a case joined with display names.
type CaseView struct {
	Case
	CaseTypeName  string `json:"case_type_name,omitempty"`
	FileDebtor    string `json:"file_debtor,omitempty"`
	CreatedByName string `json:"created_by_name,omitempty"`
}

type CaseTypeView struct {
	CaseType
	CreatedByName string `json:"created_by_name,omitempty"`
}
