package models

import (
	"time"

	"gorm.io/datatypes"
)

// FileStatus tracks a recovery file through its life.
type FileStatus string

const (
	FileNew           FileStatus = "new"
	FileInProgress    FileStatus = "in_progress"
	FilePaid          FileStatus = "paid"
	FilePartiallyPaid FileStatus = "partially_paid"
	FileClosed        FileStatus = "closed"
)

// File is a debt-recovery record: one debtor owing one client.
type File struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	DepositDate datatypes.Date `gorm:"not null" json:"deposit_date"`
	ClientID    uint           `gorm:"not null;index" json:"client_id"`
	Client      *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Debtor      string         `gorm:"size:255;not null" json:"debtor"`
	DebtProof   string         `gorm:"type:text" json:"debt_proof,omitempty"`
	TotalAmount float64        `gorm:"type:numeric(15,2);not null" json:"total_amount"`
	Commission  *float64       `gorm:"type:numeric(15,2)" json:"commission,omitempty"`
	Notes       string         `gorm:"type:text" json:"notes,omitempty"`
	Status      FileStatus     `gorm:"type:varchar(20);not null;default:new;index" json:"status"`
	CreatedBy   *uint          `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (File) TableName() string {
	return "files"
}

// PaidFile snapshots a file at settlement together with the recovery figures.
type PaidFile struct {
	FileID          uint            `gorm:"primaryKey;autoIncrement:false" json:"file_id"`
	DepositDate     datatypes.Date  `json:"deposit_date"`
	ClientID        uint            `gorm:"index" json:"client_id"`
	Debtor          string          `gorm:"size:255" json:"debtor"`
	DebtProof       string          `gorm:"type:text" json:"debt_proof,omitempty"`
	TotalAmount     float64         `gorm:"type:numeric(15,2)" json:"total_amount"`
	LastAction      string          `gorm:"size:255" json:"last_action,omitempty"`
	LastActionDate  *datatypes.Date `json:"last_action_date,omitempty"`
	RecoveredAmount float64         `gorm:"type:numeric(15,2)" json:"recovered_amount"`
	ClientRights    float64         `gorm:"type:numeric(15,2)" json:"client_rights"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	ClientBalance   float64         `gorm:"type:numeric(15,2)" json:"client_balance"`
	BalanceDate     *datatypes.Date `json:"balance_date,omitempty"`
	Expenses        float64         `gorm:"type:numeric(15,2)" json:"expenses"`
	Reference       string          `gorm:"size:255" json:"reference,omitempty"`
	NetCommission   float64         `gorm:"type:numeric(15,2)" json:"net_commission"`
	DueBalance      float64         `gorm:"type:numeric(15,2)" json:"due_balance"`
}

func (PaidFile) TableName() string {
	return "paid_files"
}

type CreateFileRequest struct {
	DepositDate string   `json:"deposit_date" binding:"required,datetime=2006-01-02"`
	ClientID    uint     `json:"client_id" binding:"required"`
	Debtor      string   `json:"debtor" binding:"required,max=255"`
	DebtProof   string   `json:"debt_proof"`
	TotalAmount float64  `json:"total_amount" binding:"required,gt=0"`
	Commission  *float64 `json:"commission" binding:"omitempty,gte=0"`
	Notes       string   `json:"notes"`
}

type UpdateFileRequest struct {
	CreateFileRequest
	Status FileStatus `json:"status" binding:"required,oneof=new in_progress paid partially_paid closed"`
}

// MoveToPaidRequest carries the settlement figures.
type MoveToPaidRequest struct {
	LastAction      string  `json:"last_action"`
	LastActionDate  string  `json:"last_action_date" binding:"omitempty,datetime=2006-01-02"`
	RecoveredAmount float64 `json:"recovered_amount" binding:"gte=0"`
	ClientRights    float64 `json:"client_rights"`
	Notes           string  `json:"notes"`
	ClientBalance   float64 `json:"client_balance"`
	BalanceDate     string  `json:"balance_date" binding:"omitempty,datetime=2006-01-02"`
	Expenses        float64 `json:"expenses" binding:"gte=0"`
	Reference       string  `json:"reference"`
	NetCommission   float64 `json:"net_commission"`
	DueBalance      float64 `json:"due_balance"`
}

// FileWithRecovery is the file listing row.
type FileWithRecovery struct {
	File
	ClientName         string   `json:"client_name"`
	RecoveredAmount    *float64 `json:"recovered_amount"`
	RecoveryPercentage float64  `json:"recovery_percentage"`
	TotalExpenses      float64  `json:"total_expenses"`
}
