package attendance

import (
	"testing"
	"time"

	"coaching-attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysInMonth(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestBuildMonth_CoversEveryDay(t *testing.T) {
	for year := 2023; year <= 2024; year++ {
		for m := time.January; m <= time.December; m++ {
			got := BuildMonth(nil, year, m, time.Time{})
			require.Len(t, got, DaysInMonth(year, m))
			assert.Equal(t, 1, got[0].Date.Day())
			assert.Equal(t, DaysInMonth(year, m), got[len(got)-1].Date.Day())
			for i, d := range got {
				assert.Equal(t, i+1, d.Date.Day())
				assert.Equal(t, 0, d.Stats.Percentage)
			}
		}
	}
}

func TestBuildMonth_Counts(t *testing.T) {
	records := []models.AttendanceRecord{
		rec(1, jan15, models.StatusPresent),
		rec(2, jan15, models.StatusAbsent),
		rec(3, jan15, models.StatusLeave),
		rec(1, jan15.AddDate(0, 0, 1), models.StatusPresent),
		rec(2, jan15.AddDate(0, 0, 1), models.StatusPresent),
		rec(3, jan15.AddDate(0, 0, 1), models.StatusPresent),
		rec(1, jan15.AddDate(0, 0, 2), models.StatusHoliday),
		rec(1, jan15.AddDate(0, 1, 0), models.StatusPresent), // февраль
	}

	got := BuildMonth(records, 2024, time.January, jan15)
	require.Len(t, got, 31)

	day15 := got[14]
	assert.True(t, day15.IsSelected)
	assert.Equal(t, CalendarStats{Present: 1, Absent: 1, Leave: 1, Percentage: 50}, day15.Stats)

	assert.Equal(t, CalendarStats{Present: 3, Percentage: 100}, got[15].Stats)
	assert.False(t, got[15].IsSelected)

	assert.Equal(t, CalendarStats{Holiday: 1}, got[16].Stats)

	total := 0
	for _, d := range got {
		total += d.Stats.Present + d.Stats.Absent + d.Stats.Leave + d.Stats.Holiday
	}
	assert.Equal(t, 7, total)
}

func TestBuildMonth_Today(t *testing.T) {
	nowFunc = func() time.Time { return time.Date(2024, time.January, 20, 13, 45, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	got := BuildMonth(nil, 2024, time.January, time.Time{})
	for _, d := range got {
		assert.Equal(t, d.Date.Day() == 20, d.IsToday, "day %d", d.Date.Day())
		assert.False(t, d.IsSelected)
	}

	other := BuildMonth(nil, 2024, time.February, time.Time{})
	for _, d := range other {
		assert.False(t, d.IsToday)
	}
}
