// Package correlation links incoming measurements to devices, users and
// their alarm histories.
package correlation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/evaluator"
	"appliance-alarm-backend/internal/metrics"
	"appliance-alarm-backend/internal/model"
	"appliance-alarm-backend/internal/store"
)

// DeviceResolver finds a device by its label.
type DeviceResolver interface {
	GetByName(ctx context.Context, name string) (*model.Device, error)
}

// UserFinder loads a user profile.
type UserFinder interface {
	FindUser(ctx context.Context, id string) (*model.User, error)
}

// Recorder receives the pipeline's metrics.
type Recorder interface {
	ObserveIngest(result string, duration time.Duration)
	IncCorrelationFailure(reason string)
	AddAlarmsRaised(alarmType string, count int)
	IncAcknowledgement()
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder replaces the default Prometheus recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// Result describes what a single measurement caused.
type Result struct {
	Device  *model.Device
	UserID  string
	Alarms  []model.Alarm
	Outcome store.Outcome
}

// Orchestrator runs the measurement-to-alarm flow.
type Orchestrator struct {
	devices   DeviceResolver
	users     UserFinder
	alarms    store.AlarmStore
	evaluator *evaluator.Evaluator
	recorder  Recorder
	logger    *zap.Logger
}

// NewOrchestrator wires the flow from its collaborators.
func NewOrchestrator(devices DeviceResolver, users UserFinder, alarms store.AlarmStore, eval *evaluator.Evaluator, logger *zap.Logger, opts ...Option) *Orchestrator {
	if eval == nil {
		eval = evaluator.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		devices:   devices,
		users:     users,
		alarms:    alarms,
		evaluator: eval,
		recorder:  metrics.Prometheus{},
		logger:    logger.Named("correlation"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnMeasurement resolves the device and its owner, evaluates the samples and
// appends any alarms. Resolution failures return before anything is written.
// A user removed between resolution and append yields Outcome NoMatch without
// an error.
func (o *Orchestrator) OnMeasurement(ctx context.Context, deviceName string, samples ...model.Sample) (res *Result, err error) {
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		o.recorder.ObserveIngest(result, time.Since(start))
	}()

	device, err := o.devices.GetByName(ctx, deviceName)
	if err != nil {
		o.recorder.IncCorrelationFailure(metrics.ReasonStorage)
		return nil, err
	}
	if device == nil {
		o.recorder.IncCorrelationFailure(metrics.ReasonDeviceNotFound)
		return nil, apperr.Wrap(apperr.ErrDeviceNotFound, "OnMeasurement", "device", deviceName)
	}

	user, err := o.users.FindUser(ctx, device.UserID)
	if err != nil {
		o.recorder.IncCorrelationFailure(metrics.ReasonStorage)
		return nil, err
	}
	if user == nil {
		o.logger.Warn("orphaned device", zap.String("device", device.Name), zap.String("user_id", device.UserID))
		o.recorder.IncCorrelationFailure(metrics.ReasonUserNotFound)
		return nil, apperr.Wrap(apperr.ErrUserNotFound, "OnMeasurement", "user", device.UserID)
	}

	res = &Result{Device: device, UserID: user.ID, Outcome: store.Applied}
	res.Alarms = o.evaluator.Evaluate(user.Thresholds.Data(), device.Name, samples...)
	if len(res.Alarms) == 0 {
		return res, nil
	}

	outcome, err := o.alarms.Append(ctx, user.ID, res.Alarms...)
	if err != nil {
		o.recorder.IncCorrelationFailure(metrics.ReasonStorage)
		return nil, err
	}
	res.Outcome = outcome
	if outcome == store.NoMatch {
		o.logger.Warn("alarm append matched no user", zap.String("user_id", user.ID), zap.Int("alarms", len(res.Alarms)))
		o.recorder.IncCorrelationFailure(metrics.ReasonNoMatch)
		return res, nil
	}

	for _, a := range res.Alarms {
		o.recorder.AddAlarmsRaised(a.Type, 1)
		o.logger.Info("alarm raised",
			zap.String("user_id", user.ID),
			zap.String("device", a.Device),
			zap.String("type", a.Type),
			zap.Float64("threshold", a.Threshold),
			zap.Float64("value", a.Value),
		)
	}
	return res, nil
}

// OnUserAlarmQuery returns a user's alarm history, newest first.
func (o *Orchestrator) OnUserAlarmQuery(ctx context.Context, userID string) ([]store.AlarmView, error) {
	if _, err := store.ParseID("OnUserAlarmQuery", "user", userID); err != nil {
		return nil, err
	}
	return o.alarms.List(ctx, userID)
}

// OnUserAlarmAcknowledge marks every unread alarm of a user as read and
// returns the updated history.
func (o *Orchestrator) OnUserAlarmAcknowledge(ctx context.Context, userID string) ([]store.AlarmView, error) {
	if _, err := store.ParseID("OnUserAlarmAcknowledge", "user", userID); err != nil {
		return nil, err
	}
	views, err := o.alarms.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	o.recorder.IncAcknowledgement()
	return views, nil
}
