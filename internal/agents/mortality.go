package agents

import "github.com/talgya/assembly/internal/entropy"

// DeathSampleRate gates the age-based rate: a character is only considered
// for death on a tenth of ticks, so the effective daily probability is
// DeathSampleRate × MortalityRate(age).
const DeathSampleRate = 0.1

// MortalityRate is the per-day death rate for an age, a step function
// rising at 50, 60, 70, 80 and 90.
func MortalityRate(age int) float64 {
	switch {
	case age < 50:
		return 0.00005 // 1 in 20,000
	case age < 60:
		return 0.0001
	case age < 70:
		return 0.0005
	case age < 80:
		return 0.0015
	case age < 90:
		return 0.005
	default:
		return 0.02
	}
}

// DailyDeathProbability is the effective chance of death on a tick.
func DailyDeathProbability(age int) float64 {
	return DeathSampleRate * MortalityRate(age)
}

// DiesAtAge applies the two independent draws. For the same draws an older
// age never survives where a younger one dies.
func DiesAtAge(age int, src entropy.Source) bool {
	if src.Float64() >= DeathSampleRate {
		return false
	}
	return src.Float64() < MortalityRate(age)
}
