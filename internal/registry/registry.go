// Package registry maps device names to owning users.
//
// Lookups that find nothing return a nil result and a nil error. Errors are
// reserved for invalid input and storage failures.
package registry

import (
	"context"

	"go.uber.org/zap"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/model"
	"appliance-alarm-backend/internal/parse"
	"appliance-alarm-backend/internal/store"
)

// Registry is the device registry service.
type Registry struct {
	store  store.DeviceStore
	logger *zap.Logger
}

// New creates a registry over the given device store.
func New(s store.DeviceStore, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: s, logger: logger.Named("registry")}
}

// Create registers a device. The name is checked for existence right before
// the insert; the unique index on devices.name rejects whatever slips through
// concurrently, and both paths report ErrDuplicateDevice.
func (r *Registry) Create(ctx context.Context, device model.Device) (*model.Device, error) {
	name, err := parse.DeviceName(device.Name)
	if err != nil {
		return nil, apperr.Validation("CreateDevice", err.Error())
	}
	userID, err := store.ParseID("CreateDevice", "user", device.UserID)
	if err != nil {
		return nil, err
	}
	device.Name = name
	device.UserID = userID
	device.ID = ""

	r.logger.Debug("creating device", zap.String("name", name), zap.String("user_id", userID))

	exists, err := r.store.DeviceNameExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		r.logger.Debug("device name exists", zap.String("name", name))
		return nil, apperr.Wrap(apperr.ErrDuplicateDevice, "CreateDevice", "device", name)
	}

	if err := r.store.CreateDevice(ctx, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// Update replaces the mutable fields of a device and returns the supplied
// content as the new state. Storage is not re-read; the Outcome tells the
// caller whether the id matched anything.
func (r *Registry) Update(ctx context.Context, id string, device model.Device) (*model.Device, store.Outcome, error) {
	name, err := parse.DeviceName(device.Name)
	if err != nil {
		return nil, store.NoMatch, apperr.Validation("UpdateDevice", err.Error())
	}
	userID, err := store.ParseID("UpdateDevice", "user", device.UserID)
	if err != nil {
		return nil, store.NoMatch, err
	}
	device.Name = name
	device.UserID = userID

	r.logger.Debug("updating device", zap.String("id", id), zap.String("name", name))

	outcome, err := r.store.UpdateDevice(ctx, id, device)
	if err != nil {
		return nil, store.NoMatch, err
	}
	if outcome == store.NoMatch {
		r.logger.Debug("update matched no device", zap.String("id", id))
	}
	device.ID = id
	return &device, outcome, nil
}

// Delete removes a device and returns its prior state, or nil when absent.
// Past alarms that reference the device by name are kept.
func (r *Registry) Delete(ctx context.Context, id string) (*model.Device, error) {
	r.logger.Debug("deleting device", zap.String("id", id))

	device, err := r.store.DeleteDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		r.logger.Debug("no device found", zap.String("id", id))
	}
	return device, nil
}

// List returns all devices.
func (r *Registry) List(ctx context.Context) ([]model.Device, error) {
	return r.store.ListDevices(ctx)
}

// GetByID returns the device or nil when absent.
func (r *Registry) GetByID(ctx context.Context, id string) (*model.Device, error) {
	return r.store.FindDeviceByID(ctx, id)
}

// GetByName resolves a device by its label, normalized the same way as on
// registration. Unparseable names resolve to nil.
func (r *Registry) GetByName(ctx context.Context, name string) (*model.Device, error) {
	normalized, err := parse.DeviceName(name)
	if err != nil {
		return nil, nil
	}
	return r.store.FindDeviceByName(ctx, normalized)
}

// GetByUserID returns a user's devices; a user without devices yields nil.
func (r *Registry) GetByUserID(ctx context.Context, userID string) ([]model.Device, error) {
	devices, err := r.store.FindDevicesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}
	return devices, nil
}
