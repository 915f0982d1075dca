package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recoverydesk/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recipient is the contact data needed to copy a notification by email.
type Recipient struct {
	ID    uint
	Name  string
	Email string
}

// NotificationStore persists notifications and resolves recipients.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uint, q models.NotificationQuery) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	Get(ctx context.Context, id uint) (*models.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Recipient(ctx context.Context, userID uint) (*Recipient, error)
	UsersInRoles(ctx context.Context, roles ...string) ([]uint, error)
}

// Mailer sends a plain notification email.
type Mailer interface {
	SendNotification(ctx context.Context, to Recipient, subject, body string) error
}

// EventPublisher announces created notifications to other systems.
type EventPublisher interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// Notifier is the narrow dependency of the reminder sweep.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type NotificationService struct {
	store     NotificationStore
	mailer    Mailer
	publisher EventPublisher
	log       *zap.Logger
}

// NewNotificationService wires the store; mailer and publisher may be nil.
func NewNotificationService(store NotificationStore, mailer Mailer, publisher EventPublisher, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, mailer: mailer, publisher: publisher, log: log}
}

// Notify stores the notification, then copies it by email and to the event
// stream. Only the insert can fail the call.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) error {
	if err := models.ValidateStruct(n); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.store.Create(ctx, &n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if s.mailer != nil {
		s.sendEmail(ctx, n)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishNotification(ctx, n); err != nil {
			s.log.Warn("failed to publish notification", zap.Uint("notification_id", n.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *NotificationService) sendEmail(ctx context.Context, n models.Notification) {
	recipient, err := s.store.Recipient(ctx, n.UserID)
	if err != nil {
		s.log.Warn("failed to resolve notification recipient", zap.Uint("user_id", n.UserID), zap.Error(err))
		return
	}
	if recipient.Email == "" {
		return
	}
	if err := s.mailer.SendNotification(ctx, *recipient, n.Title, n.Message); err != nil {
		s.log.Warn("failed to email notification", zap.Uint("user_id", n.UserID), zap.Error(err))
	}
}

// NotifyRoles sends the same notification to every active user holding one
// of the roles. It returns how many were delivered.
func (s *NotificationService) NotifyRoles(ctx context.Context, roles []string, title, message, link string) (int, error) {
	userIDs, err := s.store.UsersInRoles(ctx, roles...)
	if err != nil {
		return 0, fmt.Errorf("list users in roles: %w", err)
	}
	sent := 0
	var errs []error
	for _, id := range userIDs {
		if err := s.Notify(ctx, models.Notification{UserID: id, Title: title, Message: message, Link: link}); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (s *NotificationService) List(ctx context.Context, userID uint, q models.NotificationQuery) ([]models.Notification, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.store.List(ctx, userID, q)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read after checking ownership.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrForbidden
	}
	if n.IsRead {
		return nil
	}
	return s.store.MarkRead(ctx, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// GormNotificationStore is the postgres-backed NotificationStore.
type GormNotificationStore struct {
	db *gorm.DB
}

func NewGormNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{db: db}
}

func (s *GormNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormNotificationStore) List(ctx context.Context, userID uint, q models.NotificationQuery) ([]models.Notification, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if q.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var out []models.Notification
	err := query.Order("created_at DESC, id DESC").Limit(q.Limit).Offset(q.Offset).Find(&out).Error
	return out, err
}

func (s *GormNotificationStore) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *GormNotificationStore) Get(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (s *GormNotificationStore) MarkRead(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

func (s *GormNotificationStore) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (s *GormNotificationStore) Recipient(ctx context.Context, userID uint) (*Recipient, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "name", "email").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Recipient{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (s *GormNotificationStore) UsersInRoles(ctx context.Context, roles ...string) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Table("users u").
		Joins("JOIN roles r ON u.role_id = r.id").
		Where("r.name IN ? AND u.active = ?", roles, true).
		Pluck("u.id", &ids).Error
	return ids, err
}
