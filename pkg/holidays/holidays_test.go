package holidays

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    []string
		wantErr bool
	}{
		{
			name: "suffixes and ordering",
			json: `{"year": 2024, "months": [{"month": 3, "days": "8, 25*"}, {"month": 1, "days": "26+,1"}]}`,
			want: []string{"2024-01-01", "2024-01-26", "2024-03-08", "2024-03-25"},
		},
		{
			name: "duplicates and blanks",
			json: `{"year": 2024, "months": [{"month": 1, "days": "1,,1"}]}`,
			want: []string{"2024-01-01"},
		},
		{name: "empty", json: `{"year": 2024, "months": []}`, want: []string{}},
		{name: "bad json", json: `{`, wantErr: true},
		{name: "bad day", json: `{"year": 2024, "months": [{"month": 1, "days": "x"}]}`, wantErr: true},
		{name: "day out of month", json: `{"year": 2023, "months": [{"month": 2, "days": "29"}]}`, wantErr: true},
		{name: "bad month", json: `{"year": 2024, "months": [{"month": 13, "days": "1"}]}`, wantErr: true},
		{name: "bad year", json: `{"months": []}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.json))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			dates := make([]string, 0, len(got))
			for _, h := range got {
				dates = append(dates, h.Date.Format("2006-01-02"))
			}
			assert.Equal(t, tt.want, dates)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"year": 2024, "months": [{"month": 1, "days": "26"}]}`), 0o644))

	days, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, days, 1)

	assert.True(t, IsHoliday(days, time.Date(2024, time.January, 26, 15, 0, 0, 0, time.Local)))
	assert.False(t, IsHoliday(days, time.Date(2024, time.January, 27, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, ForMonth(days, 2024, 1), 1)
	assert.Empty(t, ForMonth(days, 2024, 2))

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
