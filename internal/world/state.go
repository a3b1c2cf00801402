// Package world provides the singleton world state, the weather field, and
// the per-tick context handed to the decision and event engines.
package world

import "time"

// Weather enumerates sky conditions over the school.
type Weather uint8

const (
	WeatherClear Weather = iota
	WeatherCloudy
	WeatherRain
	WeatherSnow
)

// Name returns a human-readable weather name.
func (w Weather) Name() string {
	switch w {
	case WeatherClear:
		return "clear"
	case WeatherCloudy:
		return "cloudy"
	case WeatherRain:
		return "rain"
	case WeatherSnow:
		return "snow"
	default:
		return "unknown"
	}
}

// State is the singleton world state for a simulation run. The orchestrator
// mutates it exactly once per tick, after all character and relationship
// updates.
type State struct {
	Time          time.Time `json:"time"`       // simulated clock, hour granularity
	Tick          uint64    `json:"tick"`       // monotonic tick counter
	SchoolDay     bool      `json:"school_day"` // weekday flag
	Weather       Weather   `json:"weather"`
	SpecialEvents []string  `json:"special_events"` // active seasonal events
	GlobalMood    float64   `json:"global_mood"`    // 0.0–1.0 aggregate
}

// NewState creates the initial world state at the given simulated time.
func NewState(start time.Time) *State {
	s := &State{
		Time:       start,
		GlobalMood: 0.5,
	}
	s.SchoolDay = isSchoolDay(start)
	return s
}

// Advance moves the world clock forward one tick (one simulated hour) and
// refreshes the day-type flag. Mood and weather are set separately by the
// orchestrator.
func (s *State) Advance() {
	s.Tick++
	s.Time = s.Time.Add(time.Hour)
	s.SchoolDay = isSchoolDay(s.Time)
}

// SchoolYearStart returns 8:00 on the first Monday of April of the current
// year, the conventional opening of the school year.
func SchoolYearStart() time.Time {
	t := time.Date(time.Now().Year(), time.April, 1, 8, 0, 0, 0, time.Local)
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func isSchoolDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Season returns the season name for a calendar month (northern school year).
func Season(month time.Month) string {
	switch {
	case month >= time.March && month <= time.May:
		return "spring"
	case month >= time.June && month <= time.August:
		return "summer"
	case month >= time.September && month <= time.November:
		return "autumn"
	default:
		return "winter"
	}
}
