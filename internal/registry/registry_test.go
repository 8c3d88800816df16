package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/model"
	"appliance-alarm-backend/internal/store"
)

type mockDeviceStore struct {
	CreateDeviceFunc      func(ctx context.Context, device *model.Device) error
	UpdateDeviceFunc      func(ctx context.Context, id string, device model.Device) (store.Outcome, error)
	DeleteDeviceFunc      func(ctx context.Context, id string) (*model.Device, error)
	ListDevicesFunc       func(ctx context.Context) ([]model.Device, error)
	FindDeviceByIDFunc    func(ctx context.Context, id string) (*model.Device, error)
	FindDeviceByNameFunc  func(ctx context.Context, name string) (*model.Device, error)
	FindDevicesByUserFunc func(ctx context.Context, userID string) ([]model.Device, error)
	DeviceNameExistsFunc  func(ctx context.Context, name string) (bool, error)
}

func (m *mockDeviceStore) CreateDevice(ctx context.Context, device *model.Device) error {
	return m.CreateDeviceFunc(ctx, device)
}

func (m *mockDeviceStore) UpdateDevice(ctx context.Context, id string, device model.Device) (store.Outcome, error) {
	return m.UpdateDeviceFunc(ctx, id, device)
}

func (m *mockDeviceStore) DeleteDevice(ctx context.Context, id string) (*model.Device, error) {
	return m.DeleteDeviceFunc(ctx, id)
}

func (m *mockDeviceStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	return m.ListDevicesFunc(ctx)
}

func (m *mockDeviceStore) FindDeviceByID(ctx context.Context, id string) (*model.Device, error) {
	return m.FindDeviceByIDFunc(ctx, id)
}

func (m *mockDeviceStore) FindDeviceByName(ctx context.Context, name string) (*model.Device, error) {
	return m.FindDeviceByNameFunc(ctx, name)
}

func (m *mockDeviceStore) FindDevicesByUser(ctx context.Context, userID string) ([]model.Device, error) {
	return m.FindDevicesByUserFunc(ctx, userID)
}

func (m *mockDeviceStore) DeviceNameExists(ctx context.Context, name string) (bool, error) {
	return m.DeviceNameExistsFunc(ctx, name)
}

func TestRegistry_Create(t *testing.T) {
	userID := uuid.NewString()

	testCases := []struct {
		name        string
		device      model.Device
		exists      bool
		existsErr   error
		createErr   error
		wantErr     error
		wantKind    apperr.Kind
		wantCreated bool
	}{
		{
			name:        "new device is persisted with normalized name",
			device:      model.Device{Name: "  fridge   1 ", UserID: userID},
			wantCreated: true,
		},
		{
			name:    "existing name is a conflict",
			device:  model.Device{Name: "fridge-1", UserID: userID},
			exists:  true,
			wantErr: apperr.ErrDuplicateDevice,
		},
		{
			name:      "unique index race is still a conflict",
			device:    model.Device{Name: "fridge-1", UserID: userID},
			createErr: apperr.Wrap(apperr.ErrDuplicateDevice, "CreateDevice", "device", "fridge-1"),
			wantErr:   apperr.ErrDuplicateDevice,
		},
		{
			name:     "empty name is invalid",
			device:   model.Device{Name: "   ", UserID: userID},
			wantKind: apperr.KindValidation,
		},
		{
			name:    "malformed owner id is invalid",
			device:  model.Device{Name: "fridge-1", UserID: "u1"},
			wantErr: apperr.ErrMalformedID,
		},
		{
			name:      "lookup failure surfaces",
			device:    model.Device{Name: "fridge-1", UserID: userID},
			existsErr: apperr.Storage("DeviceNameExists", "device", "fridge-1", errors.New("timeout")),
			wantKind:  apperr.KindStorage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			created := false
			ms := &mockDeviceStore{
				DeviceNameExistsFunc: func(ctx context.Context, name string) (bool, error) {
					return tc.exists, tc.existsErr
				},
				CreateDeviceFunc: func(ctx context.Context, device *model.Device) error {
					if tc.createErr != nil {
						return tc.createErr
					}
					created = true
					device.ID = uuid.NewString()
					return nil
				},
			}
			r := New(ms, zap.NewNop())

			got, err := r.Create(context.Background(), tc.device)

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
			case tc.wantKind != apperr.KindUnknown:
				assert.Equal(t, tc.wantKind, apperr.KindOf(err))
				assert.Nil(t, got)
			default:
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, "fridge 1", got.Name)
			}
			assert.Equal(t, tc.wantCreated, created)
		})
	}
}

func TestRegistry_UpdateReturnsSuppliedContent(t *testing.T) {
	id := uuid.NewString()
	userID := uuid.NewString()

	for _, outcome := range []store.Outcome{store.Applied, store.NoMatch} {
		ms := &mockDeviceStore{
			UpdateDeviceFunc: func(ctx context.Context, gotID string, device model.Device) (store.Outcome, error) {
				assert.Equal(t, id, gotID)
				assert.Equal(t, "oven-2", device.Name)
				return outcome, nil
			},
		}
		r := New(ms, zap.NewNop())

		got, gotOutcome, err := r.Update(context.Background(), id, model.Device{Name: "oven-2", UserID: userID})
		require.NoError(t, err)
		assert.Equal(t, outcome, gotOutcome)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "oven-2", got.Name)
		assert.Equal(t, userID, got.UserID)
	}
}

func TestRegistry_DeleteAbsentIsNotAnError(t *testing.T) {
	ms := &mockDeviceStore{
		DeleteDeviceFunc: func(ctx context.Context, id string) (*model.Device, error) {
			return nil, nil
		},
	}
	r := New(ms, zap.NewNop())

	got, err := r.Delete(context.Background(), uuid.NewString())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegistry_GetByUserIDNoneIsNil(t *testing.T) {
	ms := &mockDeviceStore{
		FindDevicesByUserFunc: func(ctx context.Context, userID string) ([]model.Device, error) {
			return []model.Device{}, nil
		},
	}
	r := New(ms, zap.NewNop())

	got, err := r.GetByUserID(context.Background(), uuid.NewString())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegistry_GetByNameNormalizes(t *testing.T) {
	var looked string
	ms := &mockDeviceStore{
		FindDeviceByNameFunc: func(ctx context.Context, name string) (*model.Device, error) {
			looked = name
			return &model.Device{Name: name}, nil
		},
	}
	r := New(ms, zap.NewNop())

	got, err := r.GetByName(context.Background(), " fridge\t1 ")
	require.NoError(t, err)
	assert.Equal(t, "fridge 1", looked)
	assert.Equal(t, "fridge 1", got.Name)

	looked = ""
	got, err = r.GetByName(context.Background(), "a/b")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, looked)
}
