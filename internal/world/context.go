package world

import (
	"time"

	"github.com/aistory/sandboxworld/internal/relationship"
)

// Well-known situational flags supplied through the context.
const (
	FlagSomeoneNeedsHelp       = "someone_needs_help"
	FlagTrustedFriendAvailable = "trusted_friend_available"
	FlagFreeTime               = "free_time"
	FlagTestApproaching        = "test_approaching"
)

// MetricAvgFriendship is the aggregate friendship metric name; the condition
// variable "friendship_level" aliases it.
const MetricAvgFriendship = "average_friendship_level"

// RelSnapshot is the per-pair view exposed to event generation. Tension and
// misunderstanding are maintained by an external collaborator; the core reads
// them for emergency-event detection but never writes them.
type RelSnapshot struct {
	Compatibility    float64 `json:"compatibility"`     // 0–100
	Tension          float64 `json:"tension"`           // 0–100
	Misunderstanding float64 `json:"misunderstanding"`  // 0–100
}

// Context is the read-only mapping supplied to the decision and event engines
// each tick: situational flags, aggregate metrics, and the current
// relationship snapshot.
type Context struct {
	Tick      uint64
	Time      time.Time
	SchoolDay bool
	Weather   Weather

	Flags   map[string]bool
	Metrics map[string]float64

	Relationships map[relationship.PairKey]RelSnapshot
}

// Flag reads a situational flag; absent flags are false.
func (c Context) Flag(name string) bool {
	return c.Flags[name]
}

// Metric reads an aggregate metric with a fallback default.
func (c Context) Metric(name string, def float64) float64 {
	if v, ok := c.Metrics[name]; ok {
		return v
	}
	return def
}
