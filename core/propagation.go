package core

import (
	"math"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// EarthRadiusKm is the mean Earth radius used for all great-circle
// calculations (kilometres).
const EarthRadiusKm = 6371.0

const (
	// AtmosphericLossDBPerKm is the flat absorption loss added on top of
	// free-space path loss when atmospheric effects are requested.
	AtmosphericLossDBPerKm = 0.1

	// AdjacentChannelRejectionMaxDB caps the rejection a receiver applies
	// to off-tune energy.
	AdjacentChannelRejectionMaxDB = 60.0

	// InterferenceThresholdDBm is the received power above which a signal
	// is considered harmful interference.
	InterferenceThresholdDBm = -90.0

	// ThermalNoiseFloorDBm is the reported noise floor when no
	// interference sources are present.
	ThermalNoiseFloorDBm = -120.0

	// minDistanceKm guards the log-of-zero singularity in the FSPL model.
	minDistanceKm = 0.001
)

// PathLoss returns free-space path loss in dB for a frequency in MHz over
// a distance in km:
//
//	FSPL = 20·log10(d) + 20·log10(f) + 32.45
//
// When includeAtmospheric is set, a flat absorption term of
// AtmosphericLossDBPerKm per kilometre is added. These are deliberately
// simplified models; a production tool would use terrain-aware propagation.
func PathLoss(freqMHz, distanceKm float64, includeAtmospheric bool) float64 {
	if distanceKm < minDistanceKm {
		distanceKm = minDistanceKm
	}

	fspl := 20*math.Log10(distanceKm) + 20*math.Log10(freqMHz) + 32.45
	if includeAtmospheric {
		fspl += AtmosphericLossDBPerKm * distanceKm
	}
	return fspl
}

// ReceivedPower evaluates the link budget: transmit power plus antenna
// gains minus path loss (atmospheric absorption included). Result in dBm.
func ReceivedPower(txPowerDBm, freqMHz, distanceKm, txGainDBi, rxGainDBi float64) float64 {
	return txPowerDBm + txGainDBi + rxGainDBi - PathLoss(freqMHz, distanceKm, true)
}

// InterferenceLevel estimates the interference an emitter causes at a
// victim receiver. It returns the interference power in dBm and a
// normalized level mapping [-90 dBm, 0 dBm] onto [0,1], clamped.
func InterferenceLevel(interfererPowerDBm, interfererFreqMHz, victimFreqMHz, distanceKm float64) (float64, float64) {
	rx := ReceivedPower(interfererPowerDBm, interfererFreqMHz, distanceKm, 0, 0)
	rx -= AdjacentChannelRejection(math.Abs(interfererFreqMHz - victimFreqMHz))

	normalized := (rx - InterferenceThresholdDBm) / (0 - InterferenceThresholdDBm)
	if normalized < 0 {
		normalized = 0
	} else if normalized > 1 {
		normalized = 1
	}
	return rx, normalized
}

// AdjacentChannelRejection models receiver selectivity as 10 dB per MHz
// of separation, capped at AdjacentChannelRejectionMaxDB. Zero separation
// means no rejection.
func AdjacentChannelRejection(separationMHz float64) float64 {
	if separationMHz == 0 {
		return 0
	}
	return math.Min(separationMHz*10.0, AdjacentChannelRejectionMaxDB)
}

// DetectionProbability estimates how likely a detector at the given
// distance is to notice the signal, as a logistic curve over the margin
// between received power and detector sensitivity.
func DetectionProbability(signalPowerDBm, distanceKm, freqMHz, detectorSensitivityDBm float64) float64 {
	margin := ReceivedPower(signalPowerDBm, freqMHz, distanceKm, 0, 0) - detectorSensitivityDBm
	return 1.0 / (1.0 + math.Exp(-margin/3.0))
}

// JammingEffectiveness returns the jammer-to-signal ratio in dB at a
// victim receiver. Positive values indicate effective jamming. Adjacent
// channel rejection is applied to the jammer when it is off-tune from the
// target signal.
func JammingEffectiveness(jammerPowerDBm, jammerFreqMHz, targetSignalPowerDBm, targetFreqMHz, distanceToTargetKm, distanceToVictimKm float64) float64 {
	jammerRx := ReceivedPower(jammerPowerDBm, jammerFreqMHz, distanceToVictimKm, 0, 0)
	signalRx := ReceivedPower(targetSignalPowerDBm, targetFreqMHz, distanceToTargetKm, 0, 0)

	jammerRx -= AdjacentChannelRejection(math.Abs(jammerFreqMHz - targetFreqMHz))
	return jammerRx - signalRx
}

// CoverageRadius inverts the FSPL equation for the maximum distance at
// which the receiver still sees sensitivity + margin, then applies one
// linear atmospheric correction pass. The correction is an approximation,
// not an iterative solve.
func CoverageRadius(txPowerDBm, freqMHz, rxSensitivityDBm, requiredMarginDB float64) float64 {
	maxPathLoss := txPowerDBm - (rxSensitivityDBm + requiredMarginDB)

	exponent := (maxPathLoss - 20*math.Log10(freqMHz) - 32.45) / 20.0
	distanceKm := math.Pow(10, exponent)

	correction := 1.0 - (AtmosphericLossDBPerKm*distanceKm)/maxPathLoss
	distanceKm *= correction

	return math.Max(0, distanceKm)
}

// DistanceKm returns the great-circle (haversine) distance between two
// locations in kilometres.
func DistanceKm(a, b model.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1
	h := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

// AzimuthDegrees returns the initial great-circle bearing from one
// location toward another, normalized to [0, 360).
func AzimuthDegrees(from, to model.Location) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dlon := (to.Lon - from.Lon) * math.Pi / 180

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
