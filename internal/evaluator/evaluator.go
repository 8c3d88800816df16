// Package evaluator decides whether samples breach a user's thresholds.
package evaluator

import (
	"math"
	"time"

	"appliance-alarm-backend/internal/model"
)

// Clock returns the evaluation time.
type Clock func() time.Time

// Evaluator builds alarm records for breaching samples. It holds no state
// besides its clock and never touches storage.
type Evaluator struct {
	now Clock
}

// New creates an evaluator. A nil clock means time.Now.
func New(now Clock) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

// Breaches is the boundary policy: a value strictly greater than the
// threshold triggers; equal does not.
func Breaches(threshold, value float64) bool {
	if !finite(threshold) || !finite(value) {
		return false
	}
	return value > threshold
}

// Evaluate returns one unread alarm per breaching sample, in sample order.
// Types without a configured threshold are skipped, so a nil or partial
// configuration simply produces fewer alarms.
func (e *Evaluator) Evaluate(thresholds model.Thresholds, device string, samples ...model.Sample) []model.Alarm {
	if len(thresholds) == 0 || len(samples) == 0 {
		return nil
	}

	var alarms []model.Alarm
	at := e.now()
	for _, s := range samples {
		limit, ok := thresholds[s.Type]
		if !ok || !Breaches(limit, s.Value) {
			continue
		}
		alarms = append(alarms, model.Alarm{
			CreatedAt: at,
			Device:    device,
			Type:      s.Type,
			Threshold: limit,
			Value:     s.Value,
			Read:      false,
		})
	}
	return alarms
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
