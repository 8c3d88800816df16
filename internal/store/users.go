package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"appliance-alarm-backend/internal/model"
)

// UserStore persists user profiles and their threshold configuration.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindUser(ctx context.Context, id string) (*model.User, error)
	UpdateThresholds(ctx context.Context, id string, thresholds model.Thresholds) (Outcome, error)
}

// CreateUser inserts a user, assigning an id when none is set.
func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Omit("Alarms").Create(user).Error; err != nil {
		return s.storageErr("CreateUser", "user", user.ID, err)
	}
	return nil
}

// FindUser returns the user or nil when absent.
func (s *gormStore) FindUser(ctx context.Context, id string) (*model.User, error) {
	id, err := ParseID("FindUser", "user", id)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, s.storageErr("FindUser", "user", id, err)
	}
	return &user, nil
}

// UpdateThresholds replaces a user's threshold configuration.
func (s *gormStore) UpdateThresholds(ctx context.Context, id string, thresholds model.Thresholds) (Outcome, error) {
	id, err := ParseID("UpdateThresholds", "user", id)
	if err != nil {
		return NoMatch, err
	}

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"thresholds": datatypes.NewJSONType(thresholds),
		"updated_at": s.now().UTC(),
	})
	if res.Error != nil {
		return NoMatch, s.storageErr("UpdateThresholds", "user", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return NoMatch, nil
	}
	return Applied, nil
}
