package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestNext_Steps(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		cfg  Config
		want time.Time
	}{
		{"daily", date(2024, 3, 10), Config{Enabled: true, Frequency: Daily, Interval: 3}, date(2024, 3, 13)},
		{"weekly interval 2", date(2024, 3, 11), Config{Enabled: true, Frequency: Weekly, Interval: 2}, date(2024, 3, 25)},
		{"monthly", date(2024, 3, 15), Config{Enabled: true, Frequency: Monthly, Interval: 1}, date(2024, 4, 15)},
		{"monthly clamps to leap february", date(2024, 1, 31), Config{Enabled: true, Frequency: Monthly, Interval: 1}, date(2024, 2, 29)},
		{"monthly clamps to february", date(2023, 1, 31), Config{Enabled: true, Frequency: Monthly, Interval: 1}, date(2023, 2, 28)},
		{"monthly across year", date(2023, 11, 30), Config{Enabled: true, Frequency: Monthly, Interval: 3}, date(2024, 2, 29)},
		{"yearly leap day", date(2024, 2, 29), Config{Enabled: true, Frequency: Yearly, Interval: 1}, date(2025, 2, 28)},
		{"yearly leap to leap", date(2024, 2, 29), Config{Enabled: true, Frequency: Yearly, Interval: 4}, date(2028, 2, 29)},
		{"zero interval is one", date(2024, 3, 10), Config{Enabled: true, Frequency: Daily}, date(2024, 3, 11)},
		{"unknown frequency is daily", date(2024, 3, 10), Config{Enabled: true, Frequency: "hourly", Interval: 1}, date(2024, 3, 11)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Next(tt.due, tt.cfg)
			assert.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNext_WeeklyKeepsWeekday(t *testing.T) {
	due := date(2024, 5, 1)
	got, ok := Next(due, Config{Enabled: true, Frequency: Weekly, Interval: 2})
	require.True(t, ok)
	assert.Equal(t, 14*24*time.Hour, got.Sub(due))
	assert.Equal(t, due.Weekday(), got.Weekday())
}

func TestNext_PreservesLocation(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	due := time.Date(2024, 1, 31, 23, 0, 0, 0, loc)
	got, _ := Next(due, Config{Enabled: true, Frequency: Monthly, Interval: 1})
	assert.Equal(t, time.Date(2024, 2, 29, 23, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestNext_AfterCount(t *testing.T) {
	cfg := Config{Enabled: true, Frequency: Daily, Interval: 1, EndCondition: AfterCount, EndCount: 3}
	due := date(2024, 1, 1)
	generated := 0
	for {
		next, ok := Next(due, cfg)
		if !ok {
			break
		}
		generated++
		require.LessOrEqual(t, generated, 3)
		due = next
		cfg = Advance(cfg)
	}
	assert.Equal(t, 3, generated)
	assert.Equal(t, 3, cfg.Occurrences)
	assert.Equal(t, 0, cfg.Remaining())
	assert.Equal(t, date(2024, 1, 4), due)
}

func TestNext_OnDate(t *testing.T) {
	end := date(2024, 1, 15)
	cfg := Config{Enabled: true, Frequency: Weekly, Interval: 1, EndCondition: OnDate, EndDate: &end}

	next, ok := Next(date(2024, 1, 1), cfg)
	assert.True(t, ok)
	assert.Equal(t, date(2024, 1, 8), next)

	next, ok = Next(next, cfg)
	assert.True(t, ok, "next equal to end date continues")
	assert.Equal(t, end, next)

	_, ok = Next(next, cfg)
	assert.False(t, ok)
}

func TestNext_Disabled(t *testing.T) {
	_, ok := Next(date(2024, 1, 1), Config{Frequency: Daily, Interval: 1})
	assert.False(t, ok)
}

func TestConfig_Validate(t *testing.T) {
	end := date(2024, 6, 1)
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"never", Config{Frequency: Daily, Interval: 1, EndCondition: Never}, nil},
		{"empty end condition", Config{Frequency: Weekly, Interval: 2}, nil},
		{"after count", Config{Frequency: Monthly, Interval: 1, EndCondition: AfterCount, EndCount: 5}, nil},
		{"on date", Config{Frequency: Yearly, Interval: 1, EndCondition: OnDate, EndDate: &end}, nil},
		{"never with count", Config{Frequency: Daily, Interval: 1, EndCount: 2}, ErrEndCountWithoutCondition},
		{"never with date", Config{Frequency: Daily, Interval: 1, EndDate: &end}, ErrEndDateWithoutCondition},
		{"after count with date", Config{Frequency: Daily, Interval: 1, EndCondition: AfterCount, EndCount: 2, EndDate: &end}, ErrEndDateWithoutCondition},
		{"after count missing", Config{Frequency: Daily, Interval: 1, EndCondition: AfterCount}, ErrMissingEndCount},
		{"on date with count", Config{Frequency: Daily, Interval: 1, EndCondition: OnDate, EndCount: 1, EndDate: &end}, ErrEndCountWithoutCondition},
		{"on date missing", Config{Frequency: Daily, Interval: 1, EndCondition: OnDate}, ErrMissingEndDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	assert.Error(t, Config{Frequency: "hourly", Interval: 1}.Validate())
	assert.Error(t, Config{Frequency: Daily, Interval: 0}.Validate())
	assert.Error(t, Config{Frequency: Daily, Interval: 1, EndCondition: "sometimes"}.Validate())
	assert.Error(t, Config{Frequency: Daily, Interval: 1, Occurrences: -1}.Validate())
}

func TestConfig_Remaining(t *testing.T) {
	assert.Equal(t, -1, Config{EndCondition: Never}.Remaining())
	assert.Equal(t, 2, Config{EndCondition: AfterCount, EndCount: 3, Occurrences: 1}.Remaining())
	assert.Equal(t, 0, Config{EndCondition: AfterCount, EndCount: 3, Occurrences: 7}.Remaining())
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{Frequency: " Weekly ", EndCondition: ""}.Normalize()
	assert.Equal(t, Weekly, cfg.Frequency)
	assert.Equal(t, Never, cfg.EndCondition)
}
