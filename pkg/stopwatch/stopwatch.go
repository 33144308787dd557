// Package stopwatch measures wall-clock phases of a solve and serialises
// durations as {"secs": s, "nanos": n} pairs.
package stopwatch

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration with a seconds/nanoseconds wire form.
type Duration time.Duration

type wireDuration struct {
	Secs  int64 `json:"secs" yaml:"secs"`
	Nanos int64 `json:"nanos" yaml:"nanos"`
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Secs returns the whole seconds of d.
func (d Duration) Secs() int64 { return int64(time.Duration(d) / time.Second) }

// Nanos returns the sub-second remainder of d in nanoseconds.
func (d Duration) Nanos() int64 { return int64(time.Duration(d) % time.Second) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDuration{Secs: d.Secs(), Nanos: d.Nanos()})
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var w wireDuration
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	return d.set(w)
}

func (d Duration) MarshalYAML() (any, error) {
	return wireDuration{Secs: d.Secs(), Nanos: d.Nanos()}, nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var w wireDuration
	if err := n.Decode(&w); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	return d.set(w)
}

func (d *Duration) set(w wireDuration) error {
	if w.Nanos < 0 || w.Nanos >= int64(time.Second) {
		return fmt.Errorf("duration: nanos %d out of range", w.Nanos)
	}
	*d = Duration(time.Duration(w.Secs)*time.Second + time.Duration(w.Nanos))
	return nil
}

// Stopwatch records laps from a fixed start.
type Stopwatch struct {
	start time.Time
	last  time.Time
	now   func() time.Time
}

// Start returns a running stopwatch.
func Start() *Stopwatch { return startWith(time.Now) }

func startWith(now func() time.Time) *Stopwatch {
	t := now()
	return &Stopwatch{start: t, last: t, now: now}
}

// Lap returns the time since the previous lap (or the start) and begins a
// new lap.
func (s *Stopwatch) Lap() Duration {
	t := s.now()
	d := t.Sub(s.last)
	s.last = t
	return Duration(d)
}

// Elapsed returns the time since Start.
func (s *Stopwatch) Elapsed() Duration { return Duration(s.now().Sub(s.start)) }
