package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

// advice priorities, ordered low to critical
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// advice categories
const (
	CategoryGeneral     = "general"
	CategoryPerformance = "performance"
	CategoryCarControl  = "car_control"
	CategorySafety      = "safety"
	CategoryStrategy    = "strategy"
	CategoryRacingLine  = "racing_line"
	CategorySetup       = "setup"
)

// Situation is everything the advisor looks at for one piece of advice.
type Situation struct {
	Frame *model.Frame
	Spots []model.Spot
	// free-text question from the driver, may be empty
	Context string
	// focus area hint, e.g. "safety"
	FocusArea string
}

// Basis records the telemetry values the advice was derived from.
type Basis struct {
	Speed    float64 `json:"speed"`
	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
	Steering float64 `json:"steering"`
	Gear     int     `json:"gear"`
	RPM      float64 `json:"rpm"`
	Lap      int     `json:"lap"`
}

// Advice is a single coaching response.
type Advice struct {
	Situation string `json:"situation"`
	Advice    string `json:"advice"`
	Priority  string `json:"priority"`
	Category  string `json:"category"`
	Basis     Basis  `json:"basis"`
}

// Advisor turns a situation into advice. Implementations must be safe for
// concurrent use.
type Advisor interface {
	Advise(ctx context.Context, sit Situation) (Advice, error)
}

const (
	shiftUpRPM    = 7500.0
	shiftDownRPM  = 3000.0
	slowSpeed     = 30.0 // m/s
	brakingSpeed  = 45.0 // m/s, heavy braking above this is called out
	overtakeRange = 50.0 // meters
	defendRange   = 30.0 // meters
)

// RuleAdvisor is a deterministic rule-based coach. It never needs external
// services, so it always answers and does so reproducibly.
type RuleAdvisor struct{}

func NewRuleAdvisor() *RuleAdvisor {
	return &RuleAdvisor{}
}

var _ Advisor = (*RuleAdvisor)(nil)

//nolint:funlen,cyclop // one rule per concern, reads top to bottom
func (a *RuleAdvisor) Advise(_ context.Context, sit Situation) (Advice, error) {
	if sit.Frame == nil {
		return Advice{
			Situation: "No telemetry available",
			Advice:    "Connect a telemetry feed to get coaching",
			Priority:  PriorityLow,
			Category:  CategoryGeneral,
		}, nil
	}

	f := sit.Frame
	var factors []string
	var points []string
	priority := PriorityLow
	category := CategoryGeneral

	raise := func(p string) {
		if rank(p) > rank(priority) {
			priority = p
		}
	}

	if f.Speed < slowSpeed && f.Throttle < 0.5 {
		factors = append(factors, "low speed")
		points = append(points, "Consider increasing pace - you have room for more speed")
		raise(PriorityHigh)
		category = CategoryPerformance
	}
	if f.Throttle > 0.95 {
		factors = append(factors, "full throttle")
	}

	switch {
	case f.RPM > shiftUpRPM:
		factors = append(factors, "rpm in the red zone")
		points = append(points, "Shift up - RPM is in the red zone")
		raise(PriorityHigh)
		category = CategoryCarControl
	case f.RPM < shiftDownRPM && f.Gear > 2:
		points = append(points, "Consider downshifting for better acceleration")
		raise(PriorityMedium)
		category = CategoryCarControl
	}

	if f.Brake > 0.9 && f.Speed > brakingSpeed {
		factors = append(factors, "heavy braking")
		points = append(points, "Heavy braking at high speed - ensure you're on the racing line")
		raise(PriorityHigh)
		category = CategorySafety
	} else if f.Brake > 0.8 {
		factors = append(factors, "heavy braking")
		raise(PriorityMedium)
	}

	ahead := lo.Filter(sit.Spots, func(s model.Spot, _ int) bool { return s.Distance > 0 })
	behind := lo.Filter(sit.Spots, func(s model.Spot, _ int) bool { return s.Distance < 0 })
	// spots arrive sorted by gap, so the first match is the closest
	if len(ahead) > 0 && ahead[0].Gap < overtakeRange {
		points = append(points,
			fmt.Sprintf("Car ahead: %s - prepare for possible overtake", ahead[0].Driver))
		raise(PriorityHigh)
		category = CategoryStrategy
	}
	if len(behind) > 0 && behind[0].Gap < defendRange {
		points = append(points,
			fmt.Sprintf("Car behind: %s - defend your position", behind[0].Driver))
		raise(PriorityMedium)
		category = CategoryStrategy
	}

	if q := strings.ToLower(sit.Context); q != "" {
		switch {
		case strings.Contains(q, "turn") || strings.Contains(q, "corner"):
			points = append(points,
				"For corner improvement: focus on entry speed, apex positioning, and exit acceleration")
			category = CategoryRacingLine
		case strings.Contains(q, "setup"):
			points = append(points,
				"Car setup concerns: monitor tire temps and adjust suspension/aero based on handling balance")
			category = CategorySetup
		case strings.Contains(q, "pace") || strings.Contains(q, "speed"):
			points = append(points,
				"To improve pace: analyze your braking points and acceleration zones")
			category = CategoryPerformance
		}
	}

	if sit.FocusArea == CategorySafety && f.FlagState != model.FlagGreen {
		points = append([]string{fmt.Sprintf("Caution: %s flag condition", f.FlagState)}, points...)
		raise(PriorityCritical)
		category = CategorySafety
	}

	if len(points) == 0 {
		points = append(points, "Maintain current approach - driving looks good")
	}

	situation := fmt.Sprintf("Lap %d, %s", f.Lap, orDefault(strings.Join(factors, ", "), "normal driving"))
	return Advice{
		Situation: situation,
		Advice:    strings.Join(points, "; "),
		Priority:  priority,
		Category:  category,
		Basis: Basis{
			Speed:    f.Speed,
			Throttle: f.Throttle,
			Brake:    f.Brake,
			Steering: f.Steering,
			Gear:     f.Gear,
			RPM:      f.RPM,
			Lap:      f.Lap,
		},
	}, nil
}

func rank(priority string) int {
	switch priority {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
