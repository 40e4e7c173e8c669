package holdrepeat

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalisation floors.
const (
	MinRepeatIntervalFloor    = 50 * time.Millisecond
	MinMinRepeatIntervalFloor = 10 * time.Millisecond
)

// Defaults is the configuration used for every field an Options bag leaves unset.
var Defaults = Config{
	InitialDelay:      400 * time.Millisecond,
	RepeatInterval:    200 * time.Millisecond,
	AccelerateAfter:   10,
	MinRepeatInterval: 50 * time.Millisecond,
}

// Options is a partial configuration. Nil fields take the default.
type Options struct {
	InitialDelay   *time.Duration
	RepeatInterval *time.Duration
	// Acceleration is the factor applied to the interval on every repeat past
	// AccelerateAfter. Nil disables acceleration.
	Acceleration      *float64
	AccelerateAfter   *int
	MinRepeatInterval *time.Duration
	MaxIterations     *int
	MaxDuration       *time.Duration
}

// Config is a normalised, immutable gesture configuration.
type Config struct {
	InitialDelay      time.Duration
	RepeatInterval    time.Duration
	Accelerate        bool
	Acceleration      float64
	AccelerateAfter   int
	MinRepeatInterval time.Duration
	// MaxIterations caps the repeat count; zero means unbounded.
	MaxIterations int
	// MaxDuration caps the hold time; zero means unbounded.
	MaxDuration time.Duration
}

// Ptr returns a pointer to v, for building Options literals.
func Ptr[T any](v T) *T {
	return &v
}

// Merge returns o with every field set in override replacing its own.
func (o Options) Merge(override Options) Options {
	out := o
	if override.InitialDelay != nil {
		out.InitialDelay = override.InitialDelay
	}
	if override.RepeatInterval != nil {
		out.RepeatInterval = override.RepeatInterval
	}
	if override.Acceleration != nil {
		out.Acceleration = override.Acceleration
	}
	if override.AccelerateAfter != nil {
		out.AccelerateAfter = override.AccelerateAfter
	}
	if override.MinRepeatInterval != nil {
		out.MinRepeatInterval = override.MinRepeatInterval
	}
	if override.MaxIterations != nil {
		out.MaxIterations = override.MaxIterations
	}
	if override.MaxDuration != nil {
		out.MaxDuration = override.MaxDuration
	}
	return out
}

// Normalize repairs o into a usable Config. It never fails: out-of-range
// values are clamped and missing ones take Defaults.
func (o Options) Normalize() Config {
	cfg := Defaults

	if o.InitialDelay != nil {
		cfg.InitialDelay = max(*o.InitialDelay, 0)
	}
	if o.RepeatInterval != nil {
		cfg.RepeatInterval = max(*o.RepeatInterval, MinRepeatIntervalFloor)
	}
	if o.Acceleration != nil && !math.IsNaN(*o.Acceleration) {
		cfg.Accelerate = true
		cfg.Acceleration = math.Min(1, math.Max(0, *o.Acceleration))
	}
	if o.AccelerateAfter != nil {
		cfg.AccelerateAfter = max(*o.AccelerateAfter, 1)
	}
	if o.MinRepeatInterval != nil {
		cfg.MinRepeatInterval = max(*o.MinRepeatInterval, MinMinRepeatIntervalFloor)
	}
	// currentInterval only shrinks, so the floor sits at or below the start.
	cfg.MinRepeatInterval = min(cfg.MinRepeatInterval, cfg.RepeatInterval)

	if o.MaxIterations != nil {
		cfg.MaxIterations = max(*o.MaxIterations, 1)
	}
	if o.MaxDuration != nil {
		cfg.MaxDuration = max(*o.MaxDuration, cfg.InitialDelay+cfg.RepeatInterval)
	}
	return cfg
}

// Unbounded reports whether neither cap is set.
func (c Config) Unbounded() bool {
	return c.MaxIterations == 0 && c.MaxDuration == 0
}

// ParseOptions reads a loosely typed bag, such as a decoded TOML table.
// Keys are matched case-insensitively with dashes and underscores ignored,
// so "initial-delay", "initial_delay" and "initialDelay" are equivalent.
// Durations are milliseconds when numeric, or Go duration strings ("300ms").
// Values that cannot be read are left unset. acceleration = false
// explicitly disables acceleration.
func ParseOptions(bag map[string]any) Options {
	var o Options
	for rawKey, value := range bag {
		switch normalizeKey(rawKey) {
		case "initialdelay":
			o.InitialDelay = parseMillis(value)
		case "repeatinterval":
			o.RepeatInterval = parseMillis(value)
		case "acceleration":
			o.Acceleration = parseFloat(value)
		case "accelerateafter":
			o.AccelerateAfter = parseInt(value)
		case "minrepeatinterval":
			o.MinRepeatInterval = parseMillis(value)
		case "maxiterations":
			o.MaxIterations = parseInt(value)
		case "maxduration":
			o.MaxDuration = parseMillis(value)
		}
	}
	return o
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer("-", "", "_", "").Replace(key)
}

func parseMillis(v any) *time.Duration {
	if s, ok := v.(string); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return &d
		}
	}
	n := parseInt(v)
	if n == nil {
		return nil
	}
	d := time.Duration(*n) * time.Millisecond
	return &d
}

func parseInt(v any) *int {
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case int32:
		i := int(n)
		return &i
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		i := int(n)
		return &i
	case string:
		return leadingInt(n)
	default:
		return nil
	}
}

func parseFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return nil
		}
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	default:
		// Strings and booleans (including false) leave acceleration off.
		return nil
	}
}

// leadingInt parses an optionally signed run of leading digits, ignoring
// any trailing text, so "250px" reads as 250.
func leadingInt(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}
