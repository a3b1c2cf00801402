// Weather field: a smooth opensimplex noise walk over tick time, so
// conditions drift believably instead of flickering at random.
package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// WeatherField derives the weather for any tick from seeded noise.
// Deterministic: same seed, same sky.
type WeatherField struct {
	noise opensimplex.Noise
	cold  opensimplex.Noise
}

// NewWeatherField creates a weather field from a seed.
func NewWeatherField(seed int64) *WeatherField {
	return &WeatherField{
		noise: opensimplex.NewNormalized(seed),
		cold:  opensimplex.NewNormalized(seed + 1),
	}
}

// At returns the weather for a tick. The noise is sampled at a low frequency
// so a weather regime persists for many hours before shifting.
func (f *WeatherField) At(tick uint64, winter bool) Weather {
	t := float64(tick) * 0.02
	wet := f.noise.Eval2(t, 0)
	chill := f.cold.Eval2(t, 7.3)

	switch {
	case wet > 0.72 && (winter || chill > 0.8):
		return WeatherSnow
	case wet > 0.72:
		return WeatherRain
	case wet > 0.45:
		return WeatherCloudy
	default:
		return WeatherClear
	}
}
