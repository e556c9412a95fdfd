package hardware

import "math"

// TemperatureConverter turns raw ADC counts into degrees Celsius. The
// hardware resource treats it as an opaque pure function.
type TemperatureConverter func(counts int) float64

// Probe and divider constants for the 3950K 10k ohm NTC thermistors the
// TMP inputs are designed for, read through the 12-bit converter.
const (
	adcFullScale    = 4095.0
	dividerOhms     = 10000.0
	nominalOhms     = 10000.0
	nominalKelvin   = 298.15
	betaCoefficient = 3950.0
)

// CountsToCelsius is the beta-model calibration for the shipped probes.
func CountsToCelsius(counts int) float64 {
	ratio := float64(counts) / adcFullScale
	// Clamp away from the rails; a shorted or open probe would otherwise
	// divide by zero.
	if ratio < 0.001 {
		ratio = 0.001
	}
	if ratio > 0.999 {
		ratio = 0.999
	}
	resistance := dividerOhms * ratio / (1 - ratio)
	kelvin := 1 / (1/nominalKelvin + math.Log(resistance/nominalOhms)/betaCoefficient)
	return kelvin - 273.15
}
