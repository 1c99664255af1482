package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cantian-ai/bazigate/internal/models"
	"github.com/cantian-ai/bazigate/internal/security"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("store: user not found")
	// ErrUsernameTaken is returned when creating an account with a used name.
	ErrUsernameTaken = errors.New("store: username taken")
	// ErrPhoneTaken is returned when creating an account with a used phone.
	ErrPhoneTaken = errors.New("store: phone taken")
)

// UserStore persists user accounts via GORM.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUserParams holds inputs for account creation.
type CreateUserParams struct {
	Username string
	Password string
	Nickname string
	Phone    string
	Disabled bool
}

// Create inserts a new account with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, params CreateUserParams) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("user store: not initialized")
	}
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, fmt.Errorf("user store: missing username")
	}
	if _, errFind := s.FindByUsername(ctx, username); errFind == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(errFind, ErrUserNotFound) {
		return nil, errFind
	}
	phone := strings.TrimSpace(params.Phone)
	if phone != "" {
		var count int64
		if errCount := s.db.WithContext(ctx).Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error; errCount != nil {
			return nil, fmt.Errorf("user store: check phone: %w", errCount)
		}
		if count > 0 {
			return nil, ErrPhoneTaken
		}
	}

	hash, errHash := security.HashPassword(params.Password)
	if errHash != nil {
		return nil, fmt.Errorf("user store: %w", errHash)
	}
	status := models.UserStatusActive
	if params.Disabled {
		status = models.UserStatusDisabled
	}
	user := models.User{
		Username: username,
		Nickname: strings.TrimSpace(params.Nickname),
		Phone:    phone,
		Password: hash,
		Status:   status,
	}
	if errCreate := s.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		return nil, fmt.Errorf("user store: create: %w", errCreate)
	}
	return &user, nil
}

// FindByID loads an account by primary key.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("user store: not initialized")
	}
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user store: find by id: %w", errFind)
	}
	return &user, nil
}

// FindByUsername loads an account by login name, ignoring case.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("user store: not initialized")
	}
	var user models.User
	errFind := s.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user store: find by username: %w", errFind)
	}
	return &user, nil
}

// RecordLogin stores the time and address of a successful login.
func (s *UserStore) RecordLogin(ctx context.Context, id int64, ip string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("user store: not initialized")
	}
	at = at.UTC()
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"last_login_at": &at,
		"last_login_ip": ip,
		"updated_at":    at,
	})
	if res.Error != nil {
		return fmt.Errorf("user store: record login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetStatus enables or disables an account.
func (s *UserStore) SetStatus(ctx context.Context, id int64, status int) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("user store: not initialized")
	}
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return fmt.Errorf("user store: invalid status %d", status)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("user store: set status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
