// Package timestamp provides the request timestamp used for freshness checks
// and as a signed input.
package timestamp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a point in time with millisecond precision.
type Timestamp struct {
	millis int64
}

// FromTime truncates t to milliseconds.
func FromTime(t time.Time) Timestamp {
	return Timestamp{millis: t.UnixMilli()}
}

// FromUnixMilli builds a Timestamp from Unix milliseconds.
func FromUnixMilli(ms int64) Timestamp {
	return Timestamp{millis: ms}
}

// Now returns the current wall-clock time.
func Now() Timestamp {
	return FromTime(time.Now())
}

// UnixMilli returns the timestamp as Unix milliseconds.
func (t Timestamp) UnixMilli() int64 {
	return t.millis
}

// Time converts the timestamp back to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(t.millis)
}

// String renders seconds with three decimals, e.g. "1700000000.123".
func (t Timestamp) String() string {
	sec := t.millis / 1000
	ms := t.millis % 1000
	if ms < 0 {
		sec--
		ms += 1000
	}
	return fmt.Sprintf("%d.%03d", sec, ms)
}

// maxSeconds keeps seconds*1000 inside int64.
const maxSeconds = math.MaxInt64 / 1000

// Parse reads the wire form produced by String. Whole seconds and fewer than
// three decimals are accepted; digits beyond milliseconds are truncated. Both
// parts must be plain decimal digits.
func Parse(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("parse timestamp: empty value")
	}

	secPart, fracPart, hasFrac := strings.Cut(s, ".")
	if !isDigits(secPart) {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: invalid seconds", s)
	}
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil || sec > maxSeconds {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: seconds out of range", s)
	}

	var ms int64
	if hasFrac {
		if !isDigits(fracPart) {
			return Timestamp{}, fmt.Errorf("parse timestamp %q: invalid fraction", s)
		}
		if len(fracPart) > 3 {
			fracPart = fracPart[:3]
		}
		for len(fracPart) < 3 {
			fracPart += "0"
		}
		ms, _ = strconv.ParseInt(fracPart, 10, 64)
	}

	if sec == maxSeconds && ms > math.MaxInt64%1000 {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: seconds out of range", s)
	}
	return Timestamp{millis: sec*1000 + ms}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Clock supplies the current timestamp.
type Clock interface {
	Now() Timestamp
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() Timestamp

// Now calls f.
func (f ClockFunc) Now() Timestamp {
	return f()
}

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(Now)

// Fixed returns a clock that always reports ts.
func Fixed(ts Timestamp) Clock {
	return ClockFunc(func() Timestamp { return ts })
}
