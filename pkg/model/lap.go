package model

// SectorSplit is the stamp for one sector boundary crossing within a lap.
type SectorSplit struct {
	Sector int `json:"sector"` // 1-based
	// distance fraction that triggered the split
	Threshold float64 `json:"threshold"`
	// session time at the crossing
	SplitTime float64 `json:"splitTime"`
	// time spent in this sector (split minus previous split resp. lap start)
	SectorTime float64 `json:"sectorTime"`
}

// LapRecord accumulates one lap from its start boundary until the next one.
// Once Completed is set the record is immutable.
type LapRecord struct {
	LapNo     int           `json:"lapNo"`
	StartTime float64       `json:"startTime"` // session time
	EndTime   float64       `json:"endTime"`   // session time, zero while open
	LapTime   float64       `json:"lapTime"`   // zero while open
	Sectors   []SectorSplit `json:"sectors"`
	Completed bool          `json:"completed"`
	// set when the lap was finalized with fewer sectors than configured
	Incomplete bool `json:"incomplete"`

	MaxSpeed float64 `json:"maxSpeed"`
	MinSpeed float64 `json:"minSpeed"`
	AvgSpeed float64 `json:"avgSpeed"`
	// standard deviation of the sampled speeds
	SpeedStdDev float64 `json:"speedStdDev"`
}

// LapAnalysis is the query result for a single lap, optionally compared
// against the session best.
type LapAnalysis struct {
	Lap         LapRecord `json:"lap"`
	BestLapNo   int       `json:"bestLapNo"`
	BestLapTime float64   `json:"bestLapTime"`
	// lap time minus best lap time, 0 for the best lap itself
	DeltaToBest float64 `json:"deltaToBest"`
	// coefficient of variation of the recent completed laps
	Consistency      float64 `json:"consistency"`
	ConsistencyValid bool    `json:"consistencyValid"`
}
