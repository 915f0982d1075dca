package models

import "time"

// Document is an uploaded attachment. FilePath holds the backend key or URL,
// Storage names the backend that owns it.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FileID     *uint     `gorm:"index" json:"file_id,omitempty"`
	ClientID   *uint     `gorm:"index" json:"client_id,omitempty"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	FilePath   string    `gorm:"size:500;not null" json:"file_path"`
	Storage    string    `gorm:"size:20;not null;default:local" json:"storage"`
	FileType   string    `gorm:"size:100" json:"file_type"`
	FileSize   int64     `json:"file_size"`
	UploadedBy *uint     `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}

// UploadDocumentForm is bound from the multipart form next to the "document" part.
type UploadDocumentForm struct {
	FileID   *uint  `form:"file_id"`
	ClientID *uint  `form:"client_id"`
	FileType string `form:"file_type"`
}

type DocumentView struct {
	Document
	Debtor         string `json:"debtor,omitempty"`
	UploadedByName string `json:"uploaded_by_name,omitempty"`
}
