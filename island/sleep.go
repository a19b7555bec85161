package island

import (
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
	"github.com/sirupsen/logrus"
)

// SleepSettings configures when a quiet island is allowed to sleep,
// resolving the distilled spec's open question on exact thresholds.
type SleepSettings struct {
	// LinearThreshold and AngularThreshold are squared-speed thresholds
	// (m/s and rad/s respectively) below which a body counts as "quiet".
	LinearThreshold  float64
	AngularThreshold float64
	// Dwell is how long every member must stay quiet before the island
	// sleeps.
	Dwell float64
}

// DefaultSleepSettings matches the teacher's TrySleep defaults,
// generalized from one body to an island-wide vote.
func DefaultSleepSettings() SleepSettings {
	return SleepSettings{LinearThreshold: 0.0025, AngularThreshold: 0.0025, Dwell: 0.25}
}

// TrySleep advances the island's quiet-dwell timer and puts it to sleep
// once every dynamic member has been quiet for settings.Dwell seconds. It
// wakes immediately (resets the timer) if any member is disabled-from-
// sleep or moving above threshold.
func (isl *Island) TrySleep(reg *registry.Registry, dt float64, settings SleepSettings) {
	if isl.Sleeping {
		return
	}

	allQuiet := true
	for e := range isl.Entities {
		state, ok := registry.GetPtr[actor.SleepState](reg, e)
		if !ok {
			allQuiet = false
			continue
		}
		if state.Disabled {
			allQuiet = false
			continue
		}
		vel, ok := registry.Get[actor.Velocity](reg, e)
		if !ok {
			continue
		}
		quiet := vel.Linear.Dot(vel.Linear) < settings.LinearThreshold &&
			vel.Angular.Dot(vel.Angular) < settings.AngularThreshold
		if !quiet {
			allQuiet = false
		}
	}

	if !allQuiet {
		isl.resetQuietTimers(reg)
		return
	}

	isl.Timestamp += dt
	quietFor := isl.advanceQuietTimers(reg, dt)
	if quietFor >= settings.Dwell {
		isl.Sleeping = true
		logrus.WithFields(logrus.Fields{"island": isl.Self, "members": len(isl.Entities)}).Debug("island sleep")
		for e := range isl.Entities {
			if state, ok := registry.GetPtr[actor.SleepState](reg, e); ok {
				state.Sleeping = true
			}
			if vel, ok := registry.GetPtr[actor.Velocity](reg, e); ok {
				*vel = actor.Velocity{}
			}
		}
	}
}

func (isl *Island) resetQuietTimers(reg *registry.Registry) {
	for e := range isl.Entities {
		if state, ok := registry.GetPtr[actor.SleepState](reg, e); ok {
			state.QuietFor = 0
		}
	}
}

// advanceQuietTimers bumps every member's timer and returns the minimum
// across members (the island is only as quiet as its least-quiet body).
func (isl *Island) advanceQuietTimers(reg *registry.Registry, dt float64) float64 {
	min := -1.0
	for e := range isl.Entities {
		state, ok := registry.GetPtr[actor.SleepState](reg, e)
		if !ok {
			continue
		}
		state.QuietFor += dt
		if min < 0 || state.QuietFor < min {
			min = state.QuietFor
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// WakeUp clears sleep state for every member of the island; called on
// perturbation (impulse application, new edge, explicit wake request).
func (isl *Island) WakeUp(reg *registry.Registry) {
	isl.Sleeping = false
	for e := range isl.Entities {
		if state, ok := registry.GetPtr[actor.SleepState](reg, e); ok {
			state.Sleeping = false
			state.QuietFor = 0
		}
	}
}
