package coach

import (
	"math"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

// driving styles derived from input history
const (
	StyleBalanced     = "balanced"
	StyleAggressive   = "aggressive"
	StyleConservative = "conservative"
	StyleUnknown      = "insufficient_data"
)

// StyleProfile summarizes how the driver uses the controls.
type StyleProfile struct {
	Style           string   `json:"style"`
	Characteristics []string `json:"characteristics"`
	AggressionLevel float64  `json:"aggressionLevel"`
	SmoothnessLevel float64  `json:"smoothnessLevel"`
	ConfidenceLevel float64  `json:"confidenceLevel"`
}

// AnalyzeStyle classifies the driving style from a window of frames.
//
//nolint:cyclop // threshold ladder
func AnalyzeStyle(frames []*model.Frame) StyleProfile {
	if len(frames) == 0 {
		return StyleProfile{Style: StyleUnknown}
	}

	var throttle, brake, steer float64
	for _, f := range frames {
		throttle += f.Throttle
		brake += f.Brake
		steer += math.Abs(f.Steering)
	}
	n := float64(len(frames))
	avgThrottle := throttle / n
	avgBrake := brake / n
	steerAggression := steer / n

	var chars []string
	style := StyleBalanced
	switch {
	case avgThrottle > 0.8:
		chars = append(chars, "aggressive_acceleration")
		style = StyleAggressive
	case avgThrottle < 0.6:
		chars = append(chars, "conservative_acceleration")
		style = StyleConservative
	}
	switch {
	case avgBrake > 0.6:
		chars = append(chars, "late_braking")
	case avgBrake < 0.3:
		chars = append(chars, "early_braking")
	}
	switch {
	case steerAggression > 0.3:
		chars = append(chars, "aggressive_steering")
	case steerAggression < 0.1:
		chars = append(chars, "smooth_steering")
	}

	return StyleProfile{
		Style:           style,
		Characteristics: chars,
		AggressionLevel: (avgThrottle + steerAggression) / 2,
		SmoothnessLevel: 1.0 - steerAggression,
		ConfidenceLevel: avgThrottle,
	}
}
