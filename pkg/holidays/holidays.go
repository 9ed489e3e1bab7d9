package holidays

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON - структура исходного JSON с праздничными днями
//
//	{"year": 2024, "months": [{"month": 1, "days": "1,2,26*"}]}
//
// Суффиксы "+" и "*" у дней игнорируются.
type CalendarJSON struct {
	Year   int             `json:"year"`
	Months []MonthHolidays `json:"months"`
}

type MonthHolidays struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

// Holiday - праздничный день
type Holiday struct {
	Date  time.Time `json:"date"`
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Day   int       `json:"day"`
}

// ParseFile - читает файл и возвращает праздничные дни
func ParseFile(filePath string) ([]Holiday, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	return Parse(data)
}

// Parse - парсит JSON и возвращает праздничные дни по возрастанию даты
func Parse(data []byte) ([]Holiday, error) {
	var calendar CalendarJSON
	if err := json.Unmarshal(data, &calendar); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	if calendar.Year < 2000 || calendar.Year > 2100 {
		return nil, fmt.Errorf("invalid year %d", calendar.Year)
	}

	seen := make(map[time.Time]struct{})
	holidays := []Holiday{}

	for _, monthData := range calendar.Months {
		if monthData.Month < 1 || monthData.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", monthData.Month)
		}

		for _, dayStr := range strings.Split(monthData.Days, ",") {
			// Убираем специальные символы (+, *)
			dayStr = strings.TrimSpace(dayStr)
			dayStr = strings.TrimSuffix(dayStr, "+")
			dayStr = strings.TrimSuffix(dayStr, "*")

			if dayStr == "" {
				continue
			}

			day, err := strconv.Atoi(dayStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w",
					dayStr, monthData.Month, err)
			}

			date := time.Date(calendar.Year, time.Month(monthData.Month), day, 0, 0, 0, 0, time.UTC)
			// time.Date нормализует 31 февраля в март
			if date.Day() != day || int(date.Month()) != monthData.Month {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, monthData.Month)
			}

			if _, dup := seen[date]; dup {
				continue
			}
			seen[date] = struct{}{}

			holidays = append(holidays, Holiday{
				Date:  date,
				Year:  calendar.Year,
				Month: monthData.Month,
				Day:   day,
			})
		}
	}

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})

	return holidays, nil
}

// ForMonth - возвращает праздничные дни конкретного месяца
func ForMonth(days []Holiday, year, month int) []Holiday {
	result := []Holiday{}
	for _, day := range days {
		if day.Year == year && day.Month == month {
			result = append(result, day)
		}
	}
	return result
}

// IsHoliday - проверяет, является ли дата праздничным днем
func IsHoliday(days []Holiday, date time.Time) bool {
	for _, day := range days {
		if day.Date.Year() == date.Year() &&
			day.Date.Month() == date.Month() &&
			day.Date.Day() == date.Day() {
			return true
		}
	}
	return false
}
