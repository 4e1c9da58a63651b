package config

// this holds the resolved configuration values from CLI
var (
	LogLevel  string // sets the log level (zap log level values)
	LogFormat string // text vs json

	TelemetryAddr      string  // address of the telemetry sample source (host:port)
	HTTPAddr           string  // listen addr for the HTTP query server
	NatsURL            string  // if set, snapshots are published to this NATS server
	TrackProfile       string  // path to track profile yaml
	UpdateInterval     string  // cadence for stream subscription pushes
	StalenessTimeout   string  // snapshot is marked stale after this duration without frames
	FuelSampleInterval string  // cadence for fuel usage sampling
	SpotRadius         float64 // default spotting radius in meters
	SpotHorizon        float64 // default prediction horizon in seconds
	Sectors            int     // number of lap sectors
	PaceWindow         int     // number of completed laps for the pace trend
	TireWearCoeff      float64 // wear fraction per kilometer driven
	LapWrapHigh        float64 // distance fraction above which a wrap may begin
	LapWrapLow         float64 // distance fraction below which a wrap is confirmed
)

// Config holds the configuration values which are used by the application
type Config struct {
	PrintFrames bool // if true, the raw frame payload will be printed on debug level
}
