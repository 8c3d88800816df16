package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"appliance-alarm-backend/internal/model"
)

// AlarmStore persists per-user alarm histories. Every mutation touches a
// single user's rows and runs as one statement or one transaction.
type AlarmStore interface {
	Append(ctx context.Context, userID string, alarms ...model.Alarm) (Outcome, error)
	List(ctx context.Context, userID string) ([]AlarmView, error)
	MarkAllRead(ctx context.Context, userID string) ([]AlarmView, error)
}

// Append adds alarms to a user's history. A missing user yields NoMatch and
// nothing is written.
func (s *gormStore) Append(ctx context.Context, userID string, alarms ...model.Alarm) (Outcome, error) {
	userID, err := ParseID("Append", "user", userID)
	if err != nil {
		return NoMatch, err
	}
	if len(alarms) == 0 {
		return Applied, nil
	}

	outcome := NoMatch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		rows := make([]model.Alarm, len(alarms))
		for i, a := range alarms {
			if a.CreatedAt.IsZero() {
				a.CreatedAt = s.now()
			}
			a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Microsecond)
			a.UserID = userID
			a.Seq = 0
			rows[i] = a
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		outcome = Applied
		return nil
	})
	if err != nil {
		return NoMatch, s.storageErr("Append", "user", userID, err)
	}
	return outcome, nil
}

// List returns a user's alarms newest first. Alarms sharing a timestamp keep
// their insertion order. An unknown user has an empty history.
func (s *gormStore) List(ctx context.Context, userID string) ([]AlarmView, error) {
	userID, err := ParseID("List", "user", userID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, "List", userID)
}

func (s *gormStore) list(ctx context.Context, op, userID string) ([]AlarmView, error) {
	var rows []model.Alarm
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, s.storageErr(op, "user", userID, err)
	}

	views := make([]AlarmView, 0, len(rows))
	for _, a := range rows {
		views = append(views, viewOf(a))
	}
	return views, nil
}

// MarkAllRead flips every unread alarm of a user to read in one statement and
// returns the resulting history.
func (s *gormStore) MarkAllRead(ctx context.Context, userID string) ([]AlarmView, error) {
	userID, err := ParseID("MarkAllRead", "user", userID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(&model.Alarm{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return nil, s.storageErr("MarkAllRead", "user", userID, err)
	}
	return s.list(ctx, "MarkAllRead", userID)
}
