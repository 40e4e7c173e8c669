package holdrepeat

import (
	"testing"
	"time"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := Options{}.Normalize()
	if cfg != Defaults {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if !cfg.Unbounded() || cfg.Accelerate {
		t.Fatalf("defaults should be unbounded without acceleration: %+v", cfg)
	}
}

func TestNormalizeClamps(t *testing.T) {
	cfg := Options{
		InitialDelay:      Ptr(-5 * time.Millisecond),
		RepeatInterval:    Ptr(10 * time.Millisecond),
		Acceleration:      Ptr(1.7),
		AccelerateAfter:   Ptr(0),
		MinRepeatInterval: Ptr(time.Millisecond),
		MaxIterations:     Ptr(-3),
		MaxDuration:       Ptr(time.Millisecond),
	}.Normalize()

	if cfg.InitialDelay != 0 {
		t.Fatalf("initial delay %s", cfg.InitialDelay)
	}
	if cfg.RepeatInterval != MinRepeatIntervalFloor {
		t.Fatalf("repeat interval %s", cfg.RepeatInterval)
	}
	if !cfg.Accelerate || cfg.Acceleration != 1 {
		t.Fatalf("acceleration %v/%v", cfg.Accelerate, cfg.Acceleration)
	}
	if cfg.AccelerateAfter != 1 {
		t.Fatalf("accelerate after %d", cfg.AccelerateAfter)
	}
	if cfg.MinRepeatInterval != MinMinRepeatIntervalFloor {
		t.Fatalf("min repeat interval %s", cfg.MinRepeatInterval)
	}
	if cfg.MaxIterations != 1 {
		t.Fatalf("max iterations %d", cfg.MaxIterations)
	}
	if cfg.MaxDuration != cfg.InitialDelay+cfg.RepeatInterval {
		t.Fatalf("max duration %s", cfg.MaxDuration)
	}
}

func TestNormalizeKeepsFloorBelowCadence(t *testing.T) {
	cfg := Options{
		RepeatInterval:    Ptr(80 * time.Millisecond),
		MinRepeatInterval: Ptr(120 * time.Millisecond),
	}.Normalize()
	if cfg.MinRepeatInterval > cfg.RepeatInterval {
		t.Fatalf("floor %s above cadence %s", cfg.MinRepeatInterval, cfg.RepeatInterval)
	}
}

func TestMerge(t *testing.T) {
	base := Options{RepeatInterval: Ptr(20 * time.Millisecond), MaxIterations: Ptr(63)}
	out := base.Merge(Options{MaxIterations: Ptr(5)})
	if *out.RepeatInterval != 20*time.Millisecond || *out.MaxIterations != 5 {
		t.Fatalf("unexpected merge %+v", out)
	}
	if *base.MaxIterations != 63 {
		t.Fatalf("merge modified the receiver")
	}
}

func TestParseOptions(t *testing.T) {
	opts := ParseOptions(map[string]any{
		"initial-delay":       int64(300),
		"repeat_interval":     "120ms",
		"minRepeatInterval":   "30px",
		"accelerate-after":    float64(4),
		"acceleration":        0.8,
		"max-iterations":      "63",
		"max_duration":        "2s",
		"unknown":             true,
		"MAX-ITERATIONS-typo": 1,
	})
	cfg := opts.Normalize()
	want := Config{
		InitialDelay:      300 * time.Millisecond,
		RepeatInterval:    120 * time.Millisecond,
		Accelerate:        true,
		Acceleration:      0.8,
		AccelerateAfter:   4,
		MinRepeatInterval: 30 * time.Millisecond,
		MaxIterations:     63,
		MaxDuration:       2 * time.Second,
	}
	if cfg != want {
		t.Fatalf("unexpected config\n got: %+v\nwant: %+v", cfg, want)
	}
}

func TestParseOptionsIgnoresUnreadableValues(t *testing.T) {
	opts := ParseOptions(map[string]any{
		"initialDelay":  "soon",
		"acceleration":  false,
		"maxIterations": "many",
		"maxDuration":   []int{1},
	})
	if opts.InitialDelay != nil || opts.Acceleration != nil || opts.MaxIterations != nil || opts.MaxDuration != nil {
		t.Fatalf("expected every field unset, got %+v", opts)
	}
	if cfg := opts.Normalize(); cfg != Defaults {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
