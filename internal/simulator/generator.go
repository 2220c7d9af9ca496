package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Sensor type names with dedicated generators. Anything else falls back
// to a uniform draw.
const (
	typeTemperature = "temperature"
	typeEnergy      = "energy"
)

// Generator produces the next synthetic reading for one sensor.
type Generator interface {
	Next(now time.Time) float64
}

// newGenerator selects a generator for the sensor's type.
func newGenerator(cfg SensorConfig, rng *rand.Rand) Generator {
	switch cfg.Type {
	case typeTemperature:
		return &randomWalk{
			min:     cfg.MinValue,
			max:     cfg.MaxValue,
			current: (cfg.MinValue + cfg.MaxValue) / 2,
			rng:     rng,
		}
	case typeEnergy:
		return &dayNight{min: cfg.MinValue, max: cfg.MaxValue, rng: rng}
	default:
		return &uniform{min: cfg.MinValue, max: cfg.MaxValue, rng: rng}
	}
}

// randomWalk drifts slowly from the midpoint, clamped to the range.
// Used for temperature, which never jumps between readings.
type randomWalk struct {
	min, max, current float64
	rng               *rand.Rand
}

func (g *randomWalk) Next(_ time.Time) float64 {
	g.current += g.rng.Float64() - 0.5
	g.current = clamp(g.current, g.min, g.max)
	return round2(g.current)
}

// dayNight models consumption with a higher daytime baseline (06:00 to
// 22:00) and noise of up to three units either way.
type dayNight struct {
	min, max float64
	rng      *rand.Rand
}

func (g *dayNight) Next(now time.Time) float64 {
	var base float64
	if hour := now.Hour(); hour >= 6 && hour <= 22 {
		base = (g.min + g.max) / 1.5
	} else {
		base = g.min + 3
	}

	value := base + (g.rng.Float64()*6 - 3)
	return round2(clamp(value, g.min, g.max))
}

// uniform draws independently from the full range on every reading.
type uniform struct {
	min, max float64
	rng      *rand.Rand
}

func (g *uniform) Next(_ time.Time) float64 {
	return round2(g.min + g.rng.Float64()*(g.max-g.min))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
