package attendance

import (
	"time"

	"coaching-attendance/internal/models"
)

var nowFunc = time.Now

// CalendarStats счетчики одного дня календаря
type CalendarStats struct {
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Leave      int `json:"leave"`
	Holiday    int `json:"holiday"`
	Percentage int `json:"percentage"`
}

// CalendarDayStat ячейка месячного календаря
type CalendarDayStat struct {
	Date       time.Time     `json:"date"`
	IsToday    bool          `json:"is_today"`
	IsSelected bool          `json:"is_selected"`
	Stats      CalendarStats `json:"stats"`
}

// DaysInMonth возвращает количество дней в месяце
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildMonth строит календарь на каждый день месяца. Записи уже должны быть
// отфильтрованы по классу и месяцу, здесь они группируются только по дате.
//
// Процент дня считается как present/(present+absent): отпуск в знаменатель
// не входит, в отличие от дневной сводки.
func BuildMonth(records []models.AttendanceRecord, year int, month time.Month, selected time.Time) []CalendarDayStat {
	days := DaysInMonth(year, month)
	now := nowFunc()

	byDay := make(map[int]*CalendarStats, days)
	for _, rec := range records {
		if rec.Date.Year() != year || rec.Date.Month() != month {
			continue
		}
		st, ok := byDay[rec.Date.Day()]
		if !ok {
			st = &CalendarStats{}
			byDay[rec.Date.Day()] = st
		}
		switch rec.Status {
		case models.StatusPresent:
			st.Present++
		case models.StatusAbsent:
			st.Absent++
		case models.StatusLeave:
			st.Leave++
		case models.StatusHoliday:
			st.Holiday++
		}
	}

	out := make([]CalendarDayStat, 0, days)
	for d := 1; d <= days; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)

		var stats CalendarStats
		if st, ok := byDay[d]; ok {
			stats = *st
		}
		stats.Percentage = percent(stats.Present, stats.Present+stats.Absent)

		out = append(out, CalendarDayStat{
			Date:       date,
			IsToday:    models.SameDay(date, now),
			IsSelected: !selected.IsZero() && models.SameDay(date, selected),
			Stats:      stats,
		})
	}

	return out
}

// Reselect обновляет признаки сегодняшнего и выбранного дня в готовом календаре
func Reselect(days []CalendarDayStat, selected time.Time) []CalendarDayStat {
	now := nowFunc()
	out := make([]CalendarDayStat, len(days))
	for i, d := range days {
		d.IsToday = models.SameDay(d.Date, now)
		d.IsSelected = !selected.IsZero() && models.SameDay(d.Date, selected)
		out[i] = d
	}
	return out
}
