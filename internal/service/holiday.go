package service

import (
	"context"
	"sync"
	"time"

	"coaching-attendance/internal/models"
	"coaching-attendance/pkg/holidays"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var nowFunc = time.Now

// HolidayReport итог импорта праздников для класса
type HolidayReport struct {
	Applied int `json:"applied"`
	// уже отмечены праздником у всего класса
	Already int `json:"already"`
	// у дня есть отметки преподавателя, их не перезаписываем
	Marked int `json:"marked"`
	// даты позже сегодняшней, будут отмечены ночным заданием
	Future int `json:"future"`
}

// HolidayService хранит календарь праздников и отмечает праздничные дни
// для всего класса
type HolidayService struct {
	attendance *AttendanceService
	logger     *logrus.Logger

	mu       sync.RWMutex
	calendar []holidays.Holiday
}

func NewHolidayService(attendance *AttendanceService) *HolidayService {
	return &HolidayService{
		attendance: attendance,
		logger:     newLogger(),
	}
}

// Load загружает календарь праздников из JSON файла
func (s *HolidayService) Load(filePath string) error {
	days, err := holidays.ParseFile(filePath)
	if err != nil {
		return err
	}
	s.SetCalendar(days)

	s.logger.WithFields(logrus.Fields{
		"file": filePath,
		"days": len(days),
	}).Info("Holiday calendar loaded")
	return nil
}

func (s *HolidayService) SetCalendar(days []holidays.Holiday) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendar = days
}

// ForMonth праздники календаря в месяце
func (s *HolidayService) ForMonth(year int, month time.Month) []holidays.Holiday {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return holidays.ForMonth(s.calendar, year, int(month))
}

func (s *HolidayService) IsHoliday(date time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return holidays.IsHoliday(s.calendar, date)
}

// ApplyCalendar отмечает в классе праздники загруженного календаря
func (s *HolidayService) ApplyCalendar(ctx context.Context, classID string) (HolidayReport, error) {
	s.mu.RLock()
	dates := make([]time.Time, 0, len(s.calendar))
	for _, d := range s.calendar {
		dates = append(dates, d.Date)
	}
	s.mu.RUnlock()

	return s.Apply(ctx, classID, dates)
}

// Apply отмечает весь класс статусом holiday на каждую дату не позже
// сегодняшней. Дни с отметками преподавателя и дни, уже отмеченные
// праздником целиком, пропускаются. Первая ошибка останавливает обработку.
func (s *HolidayService) Apply(ctx context.Context, classID string, dates []time.Time) (HolidayReport, error) {
	var report HolidayReport
	if len(dates) == 0 {
		return report, nil
	}

	roster, err := s.attendance.store.QueryRoster(ctx, classID)
	if err != nil {
		return report, errors.Wrap(err, "loading roster")
	}
	if len(roster) == 0 {
		return report, ErrEmptyRoster
	}

	today := models.Day(nowFunc())
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		day := models.Day(date)
		if day.After(today) {
			report.Future++
			continue
		}

		records, err := s.attendance.store.QueryAttendance(ctx, models.OnDate(classID, day))
		if err != nil {
			return report, errors.Wrapf(err, "holiday %s", day.Format("2006-01-02"))
		}
		if hasTeacherMarks(records) {
			s.logger.WithFields(logrus.Fields{
				"class_id": classID,
				"date":     day.Format("2006-01-02"),
				"records":  len(records),
			}).Warn("Day already marked, holiday skipped")
			report.Marked++
			continue
		}
		if len(records) >= len(roster) {
			report.Already++
			continue
		}

		if _, _, err := s.attendance.MarkAll(ctx, classID, day, models.StatusHoliday); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"class_id": classID,
				"date":     day.Format("2006-01-02"),
			}).Error("Failed to apply holiday")
			return report, errors.Wrapf(err, "holiday %s", day.Format("2006-01-02"))
		}
		report.Applied++
	}

	s.logger.WithFields(logrus.Fields{
		"class_id": classID,
		"applied":  report.Applied,
		"already":  report.Already,
		"marked":   report.Marked,
		"future":   report.Future,
	}).Info("Holidays applied")

	return report, nil
}

// hasTeacherMarks есть ли на день статусы кроме holiday
func hasTeacherMarks(records []models.AttendanceRecord) bool {
	for _, rec := range records {
		if rec.Status != models.StatusHoliday {
			return true
		}
	}
	return false
}
