package auth

import (
	"context"
	"errors"
	"fmt"

	"recoverydesk/internal/models"

	"gorm.io/gorm"
)

// DBPrincipalLoader loads principals from the users and clients tables.
type DBPrincipalLoader struct {
	db *gorm.DB
}

func NewDBPrincipalLoader(db *gorm.DB) *DBPrincipalLoader {
	return &DBPrincipalLoader{db: db}
}

func (l *DBPrincipalLoader) LoadPrincipal(ctx context.Context, kind string, id uint) (*Principal, error) {
	switch kind {
	case KindUser:
		return l.loadUser(ctx, "u.id = ?", id)
	case KindClient:
		var client models.Client
		if err := l.db.WithContext(ctx).First(&client, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPrincipalNotFound
			}
			return nil, fmt.Errorf("load client %d: %w", id, err)
		}
		return &Principal{ID: client.ID, Kind: KindClient, Role: models.RoleClient, Name: client.Name, Email: client.Email, Login: client.Login}, nil
	default:
		return nil, ErrPrincipalNotFound
	}
}

// FindActiveUserByEmail is used by Google sign-in.
func (l *DBPrincipalLoader) FindActiveUserByEmail(ctx context.Context, email string) (*Principal, error) {
	return l.loadUser(ctx, "LOWER(u.email) = LOWER(?)", email)
}

func (l *DBPrincipalLoader) loadUser(ctx context.Context, where string, arg interface{}) (*Principal, error) {
	var row struct {
		ID       uint
		Name     string
		Email    string
		Login    string
		RoleName string
	}
	err := l.db.WithContext(ctx).
		Table("users u").
		Select("u.id, u.name, u.email, u.login, r.name AS role_name").
		Joins("LEFT JOIN roles r ON u.role_id = r.id").
		Where(where, arg).
		Where("u.active = ?", true).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &Principal{ID: row.ID, Kind: KindUser, Role: row.RoleName, Name: row.Name, Email: row.Email, Login: row.Login}, nil
}
