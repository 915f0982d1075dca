package models

import "time"

// Client is a creditor the office recovers debts for. Clients get their own
// login to follow their files.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Address   string    `gorm:"type:text" json:"address,omitempty"`
	CIN       string    `gorm:"column:cin;size:50" json:"cin,omitempty"`
	Login     string    `gorm:"size:100;uniqueIndex" json:"login"`
	Password  string    `gorm:"size:255" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

// CreateClientRequest accepts explicit credentials; missing ones are generated.
type CreateClientRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Address  string `json:"address"`
	CIN      string `json:"cin" binding:"omitempty,max=50"`
	Login    string `json:"login" binding:"omitempty,max=100"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type UpdateClientRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"omitempty,max=20"`
	Address string `json:"address"`
	CIN     string `json:"cin" binding:"omitempty,max=50"`
}
