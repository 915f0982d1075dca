package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExpenseType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ExpenseType) TableName() string {
	return "expense_types"
}

// FileExpense is a cost the office advanced on a file (bailiff fees, filings...).
type FileExpense struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	FileID        uint            `gorm:"not null;index" json:"file_id"`
	ExpenseTypeID uint            `gorm:"not null" json:"expense_type_id"`
	ExpenseType   *ExpenseType    `gorm:"foreignKey:ExpenseTypeID" json:"expense_type,omitempty"`
	Amount        float64         `gorm:"type:numeric(15,2);not null" json:"amount"`
	ExpenseDate   *datatypes.Date `json:"expense_date,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy     *uint           `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (FileExpense) TableName() string {
	return "file_expenses"
}

type CreateExpenseRequest struct {
	FileID        uint    `json:"file_id" binding:"required"`
	ExpenseTypeID uint    `json:"expense_type_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	ExpenseDate   string  `json:"expense_date" binding:"omitempty,datetime=2006-01-02"`
	Notes         string  `json:"notes"`
}

// DefaultExpenseTypes seeds expense_types on first start.
var DefaultExpenseTypes = []string{
	"Lawyer fee",
	"Objection filing",
	"Litigation fees",
	"Formal notice",
	"Payment protest",
	"Enforcement seizure",
	"Truck and handling",
	"Labour",
	"Vehicle search listing",
	"Partial enforcement report",
	"Enforcement stay",
	"Enforcement continuation",
	"Vehicle objection filing",
	"Report of inability to serve",
	"Protest",
	"Service attempt",
	"Payment warning",
	"Civil judgment notice",
	"Precautionary objection record",
	"Search withdrawal",
	"Station contact",
	"Inquiry report",
	"Station deposit",
	"Enforcement impossible",
	"Enforcement attempt",
	"Stamps",
	"Payment enforcement",
	"Power of attorney notice",
	"Investigation",
	"Payment order",
	"Permits",
	"Referral stamps",
	"Enforcement order",
	"Appeal",
	"Property statement",
	"Fleet statement",
	"Postage",
	"Objection",
	"Summons",
	"Bailiff fee",
}

// FileExpenseView is an expense joined with display names.
type FileExpenseView struct {
	FileExpense
	ExpenseTypeName string `json:"expense_type_name,omitempty"`
	CreatedByName   string `json:"created_by_name,omitempty"`
}
