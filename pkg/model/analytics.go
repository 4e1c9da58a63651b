package model

// Analytics holds the derived quantities computed from a pair of
// consecutive frames. Recomputed per frame, never persisted beyond the
// most recent value plus the smoothing window kept by the calculator.
type Analytics struct {
	Accel     Vec3    `json:"accel"`  // m/s^2
	GForce    Vec3    `json:"gForce"` // multiples of standard gravity
	GForceMag float64 `json:"gForceMag"`
	// speed change vs previous frame in m/s
	SpeedDelta float64 `json:"speedDelta"`
	// distance to the idealized line if track geometry is known,
	// otherwise a smoothness heuristic from steering variance
	LineDeviation float64 `json:"lineDeviation"`
	// gear the shift heuristic would pick for the current rpm/speed
	GearSuggestion int `json:"gearSuggestion"`
	// 0.0-1.0, brake pressure vs what the current speed calls for
	BrakingEfficiency float64 `json:"brakingEfficiency"`
	// 0.0-1.0, inverse of recent throttle jitter
	ThrottleSmoothness float64 `json:"throttleSmoothness"`
}

// Spot is one nearby car entry produced by the spotting engine.
type Spot struct {
	CarIdx int    `json:"carIdx"`
	Driver string `json:"driver"`
	// signed distance along the track in meters, positive = ahead of ego
	Distance float64 `json:"distance"`
	// absolute gap in meters
	Gap      float64 `json:"gap"`
	Speed    float64 `json:"speed"`
	RelSpeed float64 `json:"relSpeed"` // positive = faster than ego
	Location string  `json:"location"` // ahead, behind or alongside
	// linear prediction of the signed distance at the configured horizon
	PredictedDistance float64 `json:"predictedDistance"`
	// seconds until the gap closes at the current relative speed,
	// 0 when the cars are not converging
	TimeToConvergence float64 `json:"timeToConvergence"`
}

const (
	LocationAhead     = "ahead"
	LocationBehind    = "behind"
	LocationAlongside = "alongside"
)
