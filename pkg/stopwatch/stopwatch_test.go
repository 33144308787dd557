package stopwatch

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDurationJSON(t *testing.T) {
	d := Duration(3*time.Second + 250*time.Millisecond)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"secs":3,"nanos":250000000}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var back Duration
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("Unmarshal = %v, want %v", back, d)
	}
}

func TestDurationRejectsBadNanos(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`{"secs":1,"nanos":1000000000}`), &d); err == nil {
		t.Error("expected error for nanos >= 1s")
	}
}

func TestStopwatchLaps(t *testing.T) {
	base := time.Unix(100, 0)
	ticks := []time.Duration{0, 2 * time.Second, 5 * time.Second, 9 * time.Second}
	i := 0
	s := startWith(func() time.Time {
		t := base.Add(ticks[i])
		i++
		return t
	})

	if got := s.Lap(); got.Std() != 2*time.Second {
		t.Errorf("first lap = %v, want 2s", got)
	}
	if got := s.Lap(); got.Std() != 3*time.Second {
		t.Errorf("second lap = %v, want 3s", got)
	}
	if got := s.Elapsed(); got.Std() != 9*time.Second {
		t.Errorf("elapsed = %v, want 9s", got)
	}
}

func TestDurationYAML(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	b, err := yaml.Marshal(struct {
		T Duration `yaml:"t"`
	}{d})
	if err != nil {
		t.Fatal(err)
	}
	var back struct {
		T Duration `yaml:"t"`
	}
	if err := yaml.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.T != d {
		t.Errorf("round trip = %v, want %v", back.T, d)
	}
}
