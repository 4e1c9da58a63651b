package kinematics

import (
	"errors"
	"math"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

const (
	StandardGravity = 9.80665 // m/s^2

	// span of the steering window used for the smoothness fallback
	defaultWindowSpan = 2.0 // seconds
	// throttle jitter is judged over the most recent frames
	throttleWindowSize = 5

	shiftUpRPM   = 7000.0
	shiftDownRPM = 4000.0
	maxGear      = 6
)

var ErrNonPositiveDt = errors.New("non-positive frame interval")

// Calculator derives per-frame analytics from consecutive frame pairs.
// It keeps only the short rolling windows needed for smoothing; everything
// else is computed from the (prev, curr) pair alone.
type Calculator struct {
	// optional idealized line: lateral offset by lap distance fraction
	lineFn     func(frac float64) float64
	windowSpan float64

	steering []steerSample
	throttle []float64
}

type steerSample struct {
	at    float64 // session time
	value float64
}

type Option func(c *Calculator)

// WithIdealLine supplies the idealized racing line. When set, the line
// deviation score is the distance between the car's lateral offset and the
// line; otherwise a steering variance heuristic is used.
func WithIdealLine(fn func(frac float64) float64) Option {
	return func(c *Calculator) {
		c.lineFn = fn
	}
}

func WithWindowSpan(seconds float64) Option {
	return func(c *Calculator) {
		if seconds > 0 {
			c.windowSpan = seconds
		}
	}
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		windowSpan: defaultWindowSpan,
		steering:   make([]steerSample, 0, 64),
		throttle:   make([]float64, 0, throttleWindowSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute derives the analytics for curr given its predecessor. A nil prev
// (first frame of a session) yields zeroed analytics. dt must be positive;
// the caller is expected to discard the frame otherwise.
func (c *Calculator) Compute(prev, curr *model.Frame, dt float64) (model.Analytics, error) {
	if dt <= 0 {
		return model.Analytics{}, ErrNonPositiveDt
	}
	c.pushSteering(curr)
	c.pushThrottle(curr.Throttle)

	if prev == nil {
		return model.Analytics{}, nil
	}

	accel := model.Vec3{
		X: (curr.Velocity.X - prev.Velocity.X) / dt,
		Y: (curr.Velocity.Y - prev.Velocity.Y) / dt,
		Z: (curr.Velocity.Z - prev.Velocity.Z) / dt,
	}
	gForce := model.Vec3{
		X: accel.X / StandardGravity,
		Y: accel.Y / StandardGravity,
		Z: accel.Z / StandardGravity,
	}

	return model.Analytics{
		Accel:              accel,
		GForce:             gForce,
		GForceMag:          math.Sqrt(gForce.X*gForce.X + gForce.Y*gForce.Y + gForce.Z*gForce.Z),
		SpeedDelta:         curr.Speed - prev.Speed,
		LineDeviation:      c.lineDeviation(curr),
		GearSuggestion:     suggestGear(curr),
		BrakingEfficiency:  brakingEfficiency(curr),
		ThrottleSmoothness: c.throttleSmoothness(curr.Throttle),
	}, nil
}

func (c *Calculator) lineDeviation(curr *model.Frame) float64 {
	if c.lineFn != nil {
		return math.Abs(curr.Pos.Y - c.lineFn(curr.LapDistPct))
	}
	return c.steeringVariance()
}

func (c *Calculator) pushSteering(curr *model.Frame) {
	c.steering = append(c.steering, steerSample{at: curr.SessionTime, value: curr.Steering})
	cutoff := curr.SessionTime - c.windowSpan
	drop := 0
	for drop < len(c.steering) && c.steering[drop].at < cutoff {
		drop++
	}
	if drop > 0 {
		c.steering = append(c.steering[:0], c.steering[drop:]...)
	}
}

// steeringVariance is the smoothness proxy: variance of the steering input
// over the rolling window. Smooth driving scores near zero.
func (c *Calculator) steeringVariance() float64 {
	if len(c.steering) < 2 {
		return 0
	}
	mean := 0.0
	for _, s := range c.steering {
		mean += s.value
	}
	mean /= float64(len(c.steering))
	variance := 0.0
	for _, s := range c.steering {
		d := s.value - mean
		variance += d * d
	}
	return variance / float64(len(c.steering)-1)
}

func (c *Calculator) pushThrottle(v float64) {
	c.throttle = append(c.throttle, v)
	if len(c.throttle) > throttleWindowSize {
		c.throttle = c.throttle[len(c.throttle)-throttleWindowSize:]
	}
}

func (c *Calculator) throttleSmoothness(curr float64) float64 {
	if len(c.throttle) < 2 {
		return 1.0
	}
	sum := 0.0
	for _, v := range c.throttle {
		sum += math.Abs(curr - v)
	}
	avg := sum / float64(len(c.throttle))
	return math.Max(0.0, 1.0-avg*5.0)
}

func suggestGear(curr *model.Frame) int {
	switch {
	case curr.RPM > shiftUpRPM && curr.Gear < maxGear:
		return curr.Gear + 1
	case curr.RPM < shiftDownRPM && curr.Gear > 1:
		return curr.Gear - 1
	default:
		return curr.Gear
	}
}

// brakingEfficiency rates brake pressure against what the current speed
// calls for. 1.0 when not braking or too slow to judge.
func brakingEfficiency(curr *model.Frame) float64 {
	if curr.Brake <= 0 || curr.Speed < 10 {
		return 1.0
	}
	optimal := math.Min(curr.Speed/100.0, 1.0)
	return math.Max(0.0, 1.0-math.Abs(curr.Brake-optimal))
}
