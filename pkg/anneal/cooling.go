package anneal

import (
	"fmt"
	"math"
	"slices"
	"strings"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
)

// MinTemperature is the floor applied to every schedule.
const MinTemperature = 1e-12

// ScheduleKind selects the cooling law.
type ScheduleKind int

const (
	// Exponential: T = T₀·αⁱ.
	Exponential ScheduleKind = iota
	// Linear: T = T₀ − α·i.
	Linear
	// Fast: T = T₀ / (1 + α·i).
	Fast
	// Logarithmic: T = T₀ / (1 + α·ln(1 + i)).
	Logarithmic
)

var scheduleNames = [...]string{"exponential", "linear", "fast", "logarithmic"}

func (k ScheduleKind) String() string {
	if k < Exponential || k > Logarithmic {
		return fmt.Sprintf("ScheduleKind(%d)", int(k))
	}
	return scheduleNames[k]
}

// ParseScheduleKind accepts the names printed by String.
func ParseScheduleKind(s string) (ScheduleKind, error) {
	if i := slices.Index(scheduleNames[:], strings.ToLower(strings.TrimSpace(s))); i >= 0 {
		return ScheduleKind(i), nil
	}
	return Exponential, fmt.Errorf("unknown cooling schedule %q", s)
}

func (k ScheduleKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ScheduleKind) UnmarshalText(b []byte) error {
	v, err := ParseScheduleKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// CoolingSchedule is a cooling law and its rate parameter.
type CoolingSchedule struct {
	Kind  ScheduleKind `json:"kind" yaml:"kind" toml:"kind"`
	Alpha float64      `json:"alpha" yaml:"alpha" toml:"alpha"`
}

// Temperature returns the temperature at iteration i for initial
// temperature t0, never below MinTemperature.
func (c CoolingSchedule) Temperature(t0 float64, i int) float64 {
	x := float64(i)
	var t float64
	switch c.Kind {
	case Exponential:
		t = t0 * math.Pow(c.Alpha, x)
	case Linear:
		t = t0 - c.Alpha*x
	case Fast:
		t = t0 / (1 + c.Alpha*x)
	case Logarithmic:
		t = t0 / (1 + c.Alpha*math.Log1p(x))
	}
	if !(t > MinTemperature) {
		return MinTemperature
	}
	return t
}

// Validate checks that Alpha suits the kind.
func (c CoolingSchedule) Validate() error {
	switch c.Kind {
	case Exponential:
		if !(c.Alpha > 0 && c.Alpha <= 1) {
			return fcerrors.New(fcerrors.ErrCodeInvalidOptions, "exponential cooling needs alpha in (0, 1], got %g", c.Alpha)
		}
	case Linear, Fast, Logarithmic:
		if !(c.Alpha >= 0) || math.IsInf(c.Alpha, 0) {
			return fcerrors.New(fcerrors.ErrCodeInvalidOptions, "%s cooling needs a finite alpha >= 0, got %g", c.Kind, c.Alpha)
		}
	default:
		return fcerrors.New(fcerrors.ErrCodeInvalidOptions, "unknown cooling schedule %d", int(c.Kind))
	}
	return nil
}

func (c CoolingSchedule) String() string { return fmt.Sprintf("%s(%g)", c.Kind, c.Alpha) }
