package attendance

import (
	"testing"
	"time"

	"coaching-attendance/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan15 = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func testRoster() []models.Student {
	return []models.Student{
		{ID: 1, Name: "Aarav Sharma", ClassID: "10", RollNumber: 1},
		{ID: 2, Name: "Bhavna Rao", ClassID: "10", RollNumber: 2},
		{ID: 3, Name: "Chirag Mehta", ClassID: "10", RollNumber: 3},
		{ID: 4, Name: "Diya Kapoor", ClassID: "11", RollNumber: 1},
	}
}

func rec(studentID uint, date time.Time, status models.AttendanceStatus) models.AttendanceRecord {
	return models.AttendanceRecord{ID: uuid.New(), StudentID: studentID, Date: date, Status: status}
}

func TestBuildDay(t *testing.T) {
	records := []models.AttendanceRecord{
		rec(1, jan15, models.StatusPresent),
		rec(3, jan15, models.StatusLeave),
		rec(2, jan15.AddDate(0, 0, -1), models.StatusPresent), // другой день
		rec(4, jan15, models.StatusPresent),
	}

	tests := []struct {
		name   string
		class  string
		search string
		want   []DayEntry
	}{
		{
			name:  "unmarked students default to absent",
			class: "10",
			want: []DayEntry{
				{StudentID: 1, Name: "Aarav Sharma", RollNumber: 1, Status: models.StatusPresent},
				{StudentID: 2, Name: "Bhavna Rao", RollNumber: 2, Status: models.StatusAbsent},
				{StudentID: 3, Name: "Chirag Mehta", RollNumber: 3, Status: models.StatusLeave},
			},
		},
		{
			name:   "search is case-insensitive substring",
			class:  "10",
			search: "RA",
			want: []DayEntry{
				{StudentID: 1, Name: "Aarav Sharma", RollNumber: 1, Status: models.StatusPresent},
				{StudentID: 2, Name: "Bhavna Rao", RollNumber: 2, Status: models.StatusAbsent},
				{StudentID: 3, Name: "Chirag Mehta", RollNumber: 3, Status: models.StatusLeave},
			},
		},
		{
			name:   "search narrows roster",
			class:  "10",
			search: "mehta",
			want: []DayEntry{
				{StudentID: 3, Name: "Chirag Mehta", RollNumber: 3, Status: models.StatusLeave},
			},
		},
		{name: "unknown class", class: "12", want: []DayEntry{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDay(testRoster(), records, tt.class, jan15, tt.search)
			assert.Equal(t, tt.class, got.ClassID)
			assert.True(t, models.SameDay(jan15, got.Date))
			assert.Equal(t, tt.want, got.Entries)
		})
	}
}

func TestBuildDay_EntriesMatchClassRoster(t *testing.T) {
	roster := testRoster()
	got := BuildDay(roster, nil, "10", jan15, "")

	require.Len(t, got.Entries, 3)
	for _, e := range got.Entries {
		assert.Equal(t, models.StatusAbsent, e.Status, "student %d", e.StudentID)
	}
}

func TestSetStatus(t *testing.T) {
	model := BuildDay(testRoster(), nil, "10", jan15, "")

	updated := SetStatus(model, 2, models.StatusPresent)
	e, ok := updated.Entry(2)
	require.True(t, ok)
	assert.Equal(t, models.StatusPresent, e.Status)

	// исходная ведомость не меняется
	e, _ = model.Entry(2)
	assert.Equal(t, models.StatusAbsent, e.Status)

	unchanged := SetStatus(model, 99, models.StatusPresent)
	assert.True(t, unchanged.Equal(model))
}

func TestBulkSetStatus(t *testing.T) {
	roster := make([]models.Student, 0, 30)
	for i := 1; i <= 30; i++ {
		roster = append(roster, models.Student{ID: uint(i), Name: "S", ClassID: "10", RollNumber: i})
	}
	model := BuildDay(roster, nil, "10", jan15, "")

	holiday := BulkSetStatus(model, models.StatusHoliday)
	require.Len(t, holiday.Entries, 30)
	for _, e := range holiday.Entries {
		assert.Equal(t, models.StatusHoliday, e.Status)
	}
	assert.Equal(t, 30, holiday.Stats().Holiday)
	assert.Equal(t, 0, holiday.Stats().AttendancePercentage)
}

func TestDayModel_Stats(t *testing.T) {
	model := BuildDay(testRoster(), nil, "10", jan15, "")
	model = SetStatus(model, 1, models.StatusPresent)
	model = SetStatus(model, 2, models.StatusAbsent)
	model = SetStatus(model, 3, models.StatusLeave)

	assert.Equal(t, DayStats{
		Present:              1,
		Absent:               1,
		Leave:                1,
		Holiday:              0,
		Total:                3,
		AttendancePercentage: 33,
	}, model.Stats())

	assert.Equal(t, DayStats{}, DayModel{}.Stats())
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole, want int
	}{
		{0, 0, 0},
		{3, 4, 75},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percent(tt.part, tt.whole), "%d/%d", tt.part, tt.whole)
	}
}

func TestSearch(t *testing.T) {
	full := SetStatus(BuildDay(testRoster(), nil, "10", jan15, ""), 2, models.StatusPresent)

	got := Search(full, "  RAO ")
	require.Len(t, got.Entries, 1)
	assert.Equal(t, uint(2), got.Entries[0].StudentID)
	assert.Equal(t, models.StatusPresent, got.Entries[0].Status)
	assert.Equal(t, 3, full.Len(), "source model untouched")

	assert.True(t, Search(full, "").Equal(full))
	assert.Equal(t, 0, Search(full, "zzz").Len())
	assert.Equal(t, BuildDay(testRoster(), nil, "10", jan15, "a"), Search(BuildDay(testRoster(), nil, "10", jan15, ""), "a"))
}
