// README: Driver and rider cancellation policies; rule cascade first, classifier last.
package adjudication

import (
	"fmt"

	"rideassist/internal/classifier"
	"rideassist/internal/types"
)

// Classifier is the adapter boundary; see classifier.Adapter.
type Classifier interface {
	Predict(id classifier.ModelID, features classifier.Features) (types.Decision, error)
}

// Thresholds parameterize both cascades.
type Thresholds struct {
	// MaxPinDistance in meters; a driver farther than this is never charged.
	MaxPinDistance int
	// GraceWait in minutes; a driver who waited this long or less is never charged.
	GraceWait int
	// EarlyWindow in minutes; rider cancellations at or under it use the early model.
	EarlyWindow int
}

var DefaultThresholds = Thresholds{
	MaxPinDistance: 100,
	GraceWait:      2,
	EarlyWindow:    1,
}

// Rule names recorded when the cascade ends before a model call.
const (
	RuleDriverNotArrived = "driver_not_arrived"
	RuleDriverTooFar     = "driver_too_far"
	RuleDriverShortWait  = "driver_short_wait"
)

// Outcome is a decision plus what produced it: a rule or a model.
type Outcome struct {
	Decision types.Decision
	Rule     string
	Model    classifier.ModelID
}

type Engine struct {
	clf Classifier
	th  Thresholds
}

func NewEngine(clf Classifier, th Thresholds) *Engine {
	return &Engine{clf: clf, th: th}
}

func (e *Engine) Thresholds() Thresholds {
	return e.th
}

// Decide runs the policy for the cancelling party. It only fails on invalid
// facts or a classifier error; valid facts always yield one of the three labels.
func (e *Engine) Decide(f Facts) (Outcome, error) {
	if err := f.Validate(e.th); err != nil {
		return Outcome{}, err
	}
	if f.CancelledBy == PartyDriver {
		return e.decideDriver(f)
	}
	return e.decideRider(f)
}

func (e *Engine) decideDriver(f Facts) (Outcome, error) {
	switch {
	case !f.Arrived:
		return ruled(RuleDriverNotArrived), nil
	case *f.DistanceFromPin > e.th.MaxPinDistance:
		return ruled(RuleDriverTooFar), nil
	case *f.WaitTime <= e.th.GraceWait:
		return ruled(RuleDriverShortWait), nil
	}
	return e.classify(classifier.ModelDriver, classifier.Features{
		classifier.FeatureRiderRating: f.RiderRating,
		classifier.FeatureWaitTime:    float64(*f.WaitTime),
	})
}

// decideRider has no waiver rule; every rider cancellation reaches a model.
func (e *Engine) decideRider(f Facts) (Outcome, error) {
	rate := *f.RiderCancellationRate
	if f.Arrived {
		return e.classify(classifier.ModelRiderArrived, classifier.Features{
			classifier.FeatureRiderRating:           f.RiderRating,
			classifier.FeatureWaitTime:              float64(*f.WaitTime),
			classifier.FeatureRiderCancellationRate: rate,
			classifier.FeatureDistanceFromPin:       float64(*f.DistanceFromPin),
		})
	}
	if *f.CancellationTime <= e.th.EarlyWindow {
		return e.classify(classifier.ModelRiderEarly, classifier.Features{
			classifier.FeatureRiderCancellationRate: rate,
		})
	}
	return e.classify(classifier.ModelRiderLate, classifier.Features{
		classifier.FeatureRiderRating:           f.RiderRating,
		classifier.FeatureCancellationTime:      float64(*f.CancellationTime),
		classifier.FeatureRiderCancellationRate: rate,
	})
}

func (e *Engine) classify(id classifier.ModelID, features classifier.Features) (Outcome, error) {
	d, err := e.clf.Predict(id, features)
	if err != nil {
		return Outcome{}, fmt.Errorf("adjudicate with %s: %w", id, err)
	}
	return Outcome{Decision: d, Model: id}, nil
}

func ruled(rule string) Outcome {
	return Outcome{Decision: types.FeeWaived, Rule: rule}
}
