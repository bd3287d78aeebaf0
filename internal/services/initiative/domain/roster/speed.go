package roster

import "math"

const (
	// DefaultSpeed applies when a character has no usable speed statistic.
	DefaultSpeed = 10
	// MinSpeed is the lowest speed ever used as a divisor.
	MinSpeed = 1
	// TurnScale is the coordinate distance a speed-1 combatant covers per turn.
	TurnScale = 1000.0
)

// ResolveSpeed derives a combatant speed from character data.
//
// The value is floor(base + bonus + level/gain), where a zero gain counts as 1.
// Characters without a speed statistic, and computations that yield zero, NaN
// or an infinity, resolve to DefaultSpeed. Negative results clamp to MinSpeed,
// so the result is always a positive integer.
func ResolveSpeed(character Character) int {
	stat := character.Speed
	if stat == nil {
		return DefaultSpeed
	}
	gain := stat.Gain
	if gain == 0 {
		gain = 1
	}
	value := math.Floor(stat.Base + stat.Bonus + float64(character.Level)/gain)
	if math.IsNaN(value) || math.IsInf(value, 0) || value == 0 {
		return DefaultSpeed
	}
	if value < MinSpeed {
		return MinSpeed
	}
	if value > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(value)
}

// ClampSpeed returns speed, raised to MinSpeed when malformed.
func ClampSpeed(speed int) int {
	if speed < MinSpeed {
		return MinSpeed
	}
	return speed
}

// Period returns the coordinate increment between successive turns.
func Period(speed int) float64 {
	return TurnScale / float64(ClampSpeed(speed))
}
