package model

// TireWear holds the per-corner wear estimate, 0.0 (new) to 1.0 (gone).
type TireWear struct {
	LF float64 `json:"lf"`
	RF float64 `json:"rf"`
	LR float64 `json:"lr"`
	RR float64 `json:"rr"`
}

// pace trend labels derived from the moving average slope
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// SessionSummary is the aggregated view over all completed laps plus the
// continuously sampled fuel/tire data.
type SessionSummary struct {
	SessionID string  `json:"sessionId"`
	StartTime float64 `json:"startTime"` // wall clock seconds
	Elapsed   float64 `json:"elapsed"`   // session seconds covered so far
	// number of completed laps
	TotalLaps int `json:"totalLaps"`
	BestLapNo int `json:"bestLapNo"`
	// zero values when no lap has been completed yet
	BestLap  float64 `json:"bestLap"`
	WorstLap float64 `json:"worstLap"`
	AvgLap   float64 `json:"avgLap"`
	// simple moving average of the last K completed lap times
	PaceTrend      float64 `json:"paceTrend"`
	PaceTrendLabel string  `json:"paceTrendLabel"`
	// coefficient of variation of the last K completed lap times
	Consistency      float64 `json:"consistency"`
	ConsistencyValid bool    `json:"consistencyValid"`
	// fuel units per second, recomputed on the sampling cadence
	FuelRate  float64  `json:"fuelRate"`
	FuelLevel float64  `json:"fuelLevel"`
	TireWear  TireWear `json:"tireWear"`
	CarCount  int      `json:"carCount"`
	FlagState string   `json:"flagState"`
}
