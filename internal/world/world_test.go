package world_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistory/sandboxworld/internal/relationship"
	"github.com/aistory/sandboxworld/internal/world"
)

func TestAdvance(t *testing.T) {
	// A Friday evening: the next two advances cross into the weekend.
	s := world.NewState(time.Date(2026, time.April, 10, 23, 0, 0, 0, time.UTC))
	require.True(t, s.SchoolDay)

	s.Advance()
	assert.Equal(t, uint64(1), s.Tick)
	assert.Equal(t, time.Saturday, s.Time.Weekday())
	assert.False(t, s.SchoolDay)

	for i := 0; i < 48; i++ {
		s.Advance()
	}
	assert.Equal(t, time.Monday, s.Time.Weekday())
	assert.True(t, s.SchoolDay)
}

func TestSeason(t *testing.T) {
	assert.Equal(t, "spring", world.Season(time.April))
	assert.Equal(t, "summer", world.Season(time.July))
	assert.Equal(t, "autumn", world.Season(time.October))
	assert.Equal(t, "winter", world.Season(time.January))
	assert.Equal(t, "winter", world.Season(time.December))
}

func TestSchoolYearStart(t *testing.T) {
	start := world.SchoolYearStart()
	assert.Equal(t, time.April, start.Month())
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 8, start.Hour())
}

func TestWeatherFieldDeterministic(t *testing.T) {
	a := world.NewWeatherField(99)
	b := world.NewWeatherField(99)
	c := world.NewWeatherField(100)

	same := true
	different := false
	for tick := uint64(0); tick < 500; tick++ {
		wa, wb := a.At(tick, false), b.At(tick, false)
		if wa != wb {
			same = false
		}
		if wa != c.At(tick, false) {
			different = true
		}
	}
	assert.True(t, same, "identical seeds give identical weather")
	assert.True(t, different, "different seeds diverge somewhere in 500 ticks")
}

func TestWeatherSnowOnlyWhenCold(t *testing.T) {
	f := world.NewWeatherField(7)
	for tick := uint64(0); tick < 2000; tick++ {
		if f.At(tick, false) == world.WeatherSnow {
			// Snow outside winter needs the separate chill threshold; the
			// same tick in winter must also snow.
			assert.Equal(t, world.WeatherSnow, f.At(tick, true))
		}
	}
}

func TestWeatherNames(t *testing.T) {
	assert.Equal(t, "clear", world.WeatherClear.Name())
	assert.Equal(t, "snow", world.WeatherSnow.Name())
}

func TestContextAccessors(t *testing.T) {
	c := world.Context{
		Flags:   map[string]bool{world.FlagFreeTime: true},
		Metrics: map[string]float64{world.MetricAvgFriendship: 44},
	}

	assert.True(t, c.Flag(world.FlagFreeTime))
	assert.False(t, c.Flag("unset"))
	assert.Equal(t, 44.0, c.Metric(world.MetricAvgFriendship, 30))
	assert.Equal(t, 30.0, c.Metric("missing", 30))

	_, ok := c.Relationships[relationship.NewPair("a", "b")]
	assert.False(t, ok)
}
