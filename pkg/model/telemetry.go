package model

// Vec3 is a cartesian vector in meters resp. m/s.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame is one timestamped telemetry sample as delivered by a sample source.
// Frames are immutable once produced and totally ordered by SessionTime.
type Frame struct {
	// wall clock seconds since epoch when the sample was produced
	Timestamp float64 `json:"timestamp"`
	// seconds since session start, strictly increasing
	SessionTime float64 `json:"sessionTime"`
	Pos         Vec3    `json:"pos"`
	Velocity    Vec3    `json:"velocity"`
	Yaw         float64 `json:"yaw"`
	Pitch       float64 `json:"pitch"`
	Roll        float64 `json:"roll"`
	// driver inputs, 0.0-1.0 (steering -1.0-1.0)
	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
	Steering float64 `json:"steering"`
	Gear     int     `json:"gear"`
	RPM      float64 `json:"rpm"`
	// scalar speed in m/s
	Speed float64 `json:"speed"`
	Lap   int     `json:"lap"`
	// normalized progress around the current lap, 0.0-1.0
	LapDistPct float64 `json:"lapDistPct"`
	FuelLevel  float64 `json:"fuelLevel"`
	TrackTemp  float64 `json:"trackTemp"`
	AirTemp    float64 `json:"airTemp"`
	OnTrack    bool    `json:"onTrack"`
	FlagState  string  `json:"flagState"`
	// all other cars in the session
	Cars []CarPosition `json:"cars"`
}

// CarPosition describes one other car within a frame.
type CarPosition struct {
	CarIdx     int     `json:"carIdx"`
	Driver     string  `json:"driver"`
	Lap        int     `json:"lap"`
	LapDistPct float64 `json:"lapDistPct"`
	Speed      float64 `json:"speed"`
	Pos        Vec3    `json:"pos"`
	Velocity   Vec3    `json:"velocity"`
}

// flag states as reported by the sample source
const (
	FlagGreen     = "Green"
	FlagYellow    = "Yellow"
	FlagRed       = "Red"
	FlagCheckered = "Checkered"
)
