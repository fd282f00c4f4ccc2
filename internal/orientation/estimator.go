// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// DefaultSmoothing is the EMA weight given to each new raw pose.
const DefaultSmoothing = 0.2

// Estimator turns accelerometer/magnetometer pairs into a smoothed Pose.
//
// Each axis is low-pass filtered with an exponential moving average against
// the previous smoothed pose. Larger alpha follows the raw signal faster but
// is noisier. The estimator is not safe for concurrent use; callers that
// share one across goroutines must serialise Update calls.
type Estimator struct {
	pose   Pose
	alpha  float64
	unwrap bool
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithInitialPose seeds the smoothed state. The default is the zero pose.
func WithInitialPose(p Pose) Option {
	return func(e *Estimator) { e.pose = p }
}

// WithSmoothing sets the default EMA weight used by Update.
func WithSmoothing(alpha float64) Option {
	return func(e *Estimator) { e.alpha = alpha }
}

// WithUnwrap controls whether raw angles are unwrapped against the previous
// smoothed pose before blending. Without it a yaw crossing ±180° blends
// across the discontinuity and the smoothed value swings through zero.
func WithUnwrap(enabled bool) Option {
	return func(e *Estimator) { e.unwrap = enabled }
}

// NewEstimator returns an estimator with unwrapping enabled and alpha 0.2.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{alpha: DefaultSmoothing, unwrap: true}
	for _, opt := range opts {
		opt(e)
	}
	e.alpha = validAlpha(e.alpha)
	return e
}

// Update folds one sample into the state using the configured alpha.
func (e *Estimator) Update(acc, mag Vector3) Pose {
	return e.UpdateAlpha(acc, mag, e.alpha)
}

// UpdateAlpha folds one sample into the state using alpha for this call only.
// An alpha outside (0, 1] falls back to DefaultSmoothing.
func (e *Estimator) UpdateAlpha(acc, mag Vector3, alpha float64) Pose {
	alpha = validAlpha(alpha)
	raw := Raw(acc, mag)

	if e.unwrap {
		raw.Roll = UnwrapAngle(raw.Roll, e.pose.Roll)
		raw.Pitch = UnwrapAngle(raw.Pitch, e.pose.Pitch)
		raw.Yaw = UnwrapAngle(raw.Yaw, e.pose.Yaw)
	}

	e.pose = Pose{
		Roll:  ema(alpha, raw.Roll, e.pose.Roll),
		Pitch: ema(alpha, raw.Pitch, e.pose.Pitch),
		Yaw:   ema(alpha, raw.Yaw, e.pose.Yaw),
	}
	return e.pose
}

// Pose returns the current smoothed pose.
func (e *Estimator) Pose() Pose {
	return e.pose
}

// Reset replaces the smoothed state.
func (e *Estimator) Reset(p Pose) {
	e.pose = p
}

// Alpha returns the configured smoothing weight.
func (e *Estimator) Alpha() float64 {
	return e.alpha
}

func ema(alpha, next, prev float64) float64 {
	return alpha*next + (1-alpha)*prev
}

func validAlpha(alpha float64) float64 {
	if alpha <= 0 || alpha > 1 {
		return DefaultSmoothing
	}
	return alpha
}
