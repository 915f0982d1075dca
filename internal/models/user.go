package models

import (
	"time"
)

// Role names as stored in the roles table.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleClient   = "client"
)

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Role) TableName() string {
	return "roles"
}

// User is a staff account (admin or employee).
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Login     string    `gorm:"size:100;uniqueIndex;not null" json:"login"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	RoleID    uint      `gorm:"index" json:"role_id"`
	Role      Role      `gorm:"foreignKey:RoleID" json:"role"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// LoginRequest is shared by staff and client login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"omitempty,max=20"`
	Role  string `json:"role" binding:"required,oneof=admin employee"`
}

type UpdateUserRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	Email  string `json:"email" binding:"required,email"`
	Phone  string `json:"phone" binding:"omitempty,max=20"`
	Role   string `json:"role" binding:"required,oneof=admin employee"`
	Active *bool  `json:"active" binding:"required"`
}
