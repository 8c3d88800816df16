package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/model"
)

// DeviceStore persists registered devices.
type DeviceStore interface {
	CreateDevice(ctx context.Context, device *model.Device) error
	UpdateDevice(ctx context.Context, id string, device model.Device) (Outcome, error)
	DeleteDevice(ctx context.Context, id string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	FindDeviceByID(ctx context.Context, id string) (*model.Device, error)
	FindDeviceByName(ctx context.Context, name string) (*model.Device, error)
	FindDevicesByUser(ctx context.Context, userID string) ([]model.Device, error)
	DeviceNameExists(ctx context.Context, name string) (bool, error)
}

// CreateDevice inserts a device, assigning an id when none is set. A name
// already taken surfaces as ErrDuplicateDevice via the unique index.
func (s *gormStore) CreateDevice(ctx context.Context, device *model.Device) error {
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(device).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrDuplicateDevice, "CreateDevice", "device", device.Name)
		}
		return s.storageErr("CreateDevice", "device", device.ID, err)
	}
	return nil
}

// UpdateDevice replaces the mutable fields of a device.
func (s *gormStore) UpdateDevice(ctx context.Context, id string, device model.Device) (Outcome, error) {
	id, err := ParseID("UpdateDevice", "device", id)
	if err != nil {
		return NoMatch, err
	}

	res := s.db.WithContext(ctx).Model(&model.Device{}).Where("id = ?", id).Updates(map[string]any{
		"name":       device.Name,
		"user_id":    device.UserID,
		"metadata":   device.Metadata,
		"updated_at": s.now().UTC(),
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return NoMatch, apperr.Wrap(apperr.ErrDuplicateDevice, "UpdateDevice", "device", device.Name)
		}
		return NoMatch, s.storageErr("UpdateDevice", "device", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return NoMatch, nil
	}
	return Applied, nil
}

// DeleteDevice removes a device and returns its prior state, or nil when absent.
func (s *gormStore) DeleteDevice(ctx context.Context, id string) (*model.Device, error) {
	id, err := ParseID("DeleteDevice", "device", id)
	if err != nil {
		return nil, err
	}

	var deleted *model.Device
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device model.Device
		if err := tx.First(&device, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&model.Device{}, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = &device
		return nil
	})
	if err != nil {
		return nil, s.storageErr("DeleteDevice", "device", id, err)
	}
	return deleted, nil
}

// ListDevices returns every device.
func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("name").Find(&devices).Error; err != nil {
		return nil, s.storageErr("ListDevices", "device", "", err)
	}
	return devices, nil
}

// FindDeviceByID returns the device or nil when absent.
func (s *gormStore) FindDeviceByID(ctx context.Context, id string) (*model.Device, error) {
	id, err := ParseID("FindDeviceByID", "device", id)
	if err != nil {
		return nil, err
	}
	return s.findDevice(ctx, "FindDeviceByID", "id = ?", id)
}

// FindDeviceByName returns the device or nil when absent.
func (s *gormStore) FindDeviceByName(ctx context.Context, name string) (*model.Device, error) {
	return s.findDevice(ctx, "FindDeviceByName", "name = ?", name)
}

func (s *gormStore) findDevice(ctx context.Context, op, cond, arg string) (*model.Device, error) {
	var device model.Device
	if err := s.db.WithContext(ctx).Where(cond, arg).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, s.storageErr(op, "device", arg, err)
	}
	return &device, nil
}

// FindDevicesByUser returns the devices owned by a user.
func (s *gormStore) FindDevicesByUser(ctx context.Context, userID string) ([]model.Device, error) {
	userID, err := ParseID("FindDevicesByUser", "user", userID)
	if err != nil {
		return nil, err
	}
	var devices []model.Device
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&devices).Error; err != nil {
		return nil, s.storageErr("FindDevicesByUser", "user", userID, err)
	}
	return devices, nil
}

// DeviceNameExists reports whether a device with this name is registered.
func (s *gormStore) DeviceNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Device{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, s.storageErr("DeviceNameExists", "device", name, err)
	}
	return count > 0, nil
}
