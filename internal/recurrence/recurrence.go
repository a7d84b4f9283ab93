// Package recurrence decides when the next instance of a recurring task is due
// and whether the series goes on after the current one is completed.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case Daily, Weekly, Monthly, Yearly:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

type EndCondition string

const (
	Never      EndCondition = "never"
	AfterCount EndCondition = "after_count"
	OnDate     EndCondition = "on_date"
)

func ParseEndCondition(s string) (EndCondition, error) {
	switch c := EndCondition(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return Never, nil
	case Never, AfterCount, OnDate:
		return c, nil
	}
	return "", fmt.Errorf("unknown end condition %q", s)
}

// Config is the recurrence rule stored on a task. Occurrences counts the
// instances generated so far in the series.
type Config struct {
	Enabled      bool         `yaml:"enabled" json:"enabled" bson:"enabled"`
	Frequency    Frequency    `yaml:"frequency" json:"frequency" bson:"frequency"`
	Interval     int          `yaml:"interval" json:"interval" bson:"interval"`
	EndCondition EndCondition `yaml:"end_condition" json:"end_condition" bson:"end_condition"`
	EndCount     int          `yaml:"end_count,omitempty" json:"end_count,omitempty" bson:"end_count,omitempty"`
	EndDate      *time.Time   `yaml:"end_date,omitempty" json:"end_date,omitempty" bson:"end_date,omitempty"`
	Occurrences  int          `yaml:"occurrences" json:"occurrences" bson:"occurrences"`
}

var (
	ErrEndCountWithoutCondition = errors.New("end_count is only allowed with end_condition after_count")
	ErrEndDateWithoutCondition  = errors.New("end_date is only allowed with end_condition on_date")
	ErrMissingEndCount          = errors.New("end_count must be at least 1 for end_condition after_count")
	ErrMissingEndDate           = errors.New("end_date is required for end_condition on_date")
)

// Validate checks the rule for values a client could send that the evaluator
// would otherwise silently reinterpret. At most one end value may be set, and
// it must match the end condition.
func (c Config) Validate() error {
	if _, err := ParseFrequency(string(c.Frequency)); err != nil {
		return err
	}
	if c.Interval < 1 {
		return fmt.Errorf("interval must be a positive integer, got %d", c.Interval)
	}
	cond, err := ParseEndCondition(string(c.EndCondition))
	if err != nil {
		return err
	}
	switch cond {
	case Never:
		if c.EndCount != 0 {
			return ErrEndCountWithoutCondition
		}
		if c.EndDate != nil {
			return ErrEndDateWithoutCondition
		}
	case AfterCount:
		if c.EndDate != nil {
			return ErrEndDateWithoutCondition
		}
		if c.EndCount < 1 {
			return ErrMissingEndCount
		}
	case OnDate:
		if c.EndCount != 0 {
			return ErrEndCountWithoutCondition
		}
		if c.EndDate == nil {
			return ErrMissingEndDate
		}
	}
	if c.Occurrences < 0 {
		return fmt.Errorf("occurrences must not be negative, got %d", c.Occurrences)
	}
	return nil
}

// Normalize lower-cases enum fields and fills the never end condition.
func (c Config) Normalize() Config {
	c.Frequency = Frequency(strings.ToLower(strings.TrimSpace(string(c.Frequency))))
	c.EndCondition = EndCondition(strings.ToLower(strings.TrimSpace(string(c.EndCondition))))
	if c.EndCondition == "" {
		c.EndCondition = Never
	}
	return c
}

// Remaining is the number of instances still to be generated for an
// after_count series, or -1 when the series is not bounded by a count.
func (c Config) Remaining() int {
	if c.EndCondition != AfterCount {
		return -1
	}
	return max(c.EndCount-c.Occurrences, 0)
}

// Next advances due by one step of the rule and reports whether the series
// continues with an instance on that date.
func Next(due time.Time, c Config) (time.Time, bool) {
	next := step(due, c.Frequency, max(c.Interval, 1))
	if !c.Enabled {
		return next, false
	}
	switch c.EndCondition {
	case AfterCount:
		return next, c.Occurrences < c.EndCount
	case OnDate:
		return next, c.EndDate != nil && !next.After(*c.EndDate)
	default:
		return next, true
	}
}

// Advance returns the rule carried by the instance that Next just produced.
func Advance(c Config) Config {
	c.Occurrences++
	return c
}

func step(t time.Time, f Frequency, n int) time.Time {
	switch f {
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Monthly:
		return addMonths(t, n)
	case Yearly:
		return addMonths(t, 12*n)
	default:
		return t.AddDate(0, 0, n)
	}
}

// addMonths moves t by n calendar months, clamping the day to the last day of
// the target month instead of overflowing like time.AddDate does.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
