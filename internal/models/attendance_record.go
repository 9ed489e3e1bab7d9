package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceStatus string

// Статусы посещаемости
const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLeave   AttendanceStatus = "leave"
	StatusHoliday AttendanceStatus = "holiday"
)

// Valid проверяет, что статус входит в список допустимых
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave, StatusHoliday:
		return true
	default:
		return false
	}
}

// ParseStatus разбирает статус в любом регистре или по первой букве (p/a/l/h)
func ParseStatus(s string) (AttendanceStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "p":
		return StatusPresent, true
	case "a":
		return StatusAbsent, true
	case "l":
		return StatusLeave, true
	case "h":
		return StatusHoliday, true
	}
	status := AttendanceStatus(s)
	return status, status.Valid()
}

type AttendanceRecord struct {
	ID        uuid.UUID        `gorm:"type:char(36);primaryKey" json:"id"`
	StudentID uint             `gorm:"not null;uniqueIndex:idx_attendance_student_date" json:"student_id"`
	Date      time.Time        `gorm:"type:date;not null;uniqueIndex:idx_attendance_student_date;index" json:"date"`
	Status    AttendanceStatus `gorm:"type:varchar(10);not null;index" json:"status"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Student *Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

func (r *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsPersisted проверяет, сохранена ли запись в БД
func (r *AttendanceRecord) IsPersisted() bool {
	return r.ID != uuid.Nil
}

// IsValid проверяет валидность данных
func (r *AttendanceRecord) IsValid() bool {
	if r.StudentID == 0 {
		return false
	}
	if r.Date.IsZero() {
		return false
	}
	return r.Status.Valid()
}

// AttendanceFilter ограничивает выборку посещаемости. Пустые поля не применяются,
// From и To включительно.
type AttendanceFilter struct {
	ClassID   string
	StudentID uint
	From      time.Time
	To        time.Time
}

// OnDate фильтр на один день для класса
func OnDate(classID string, date time.Time) AttendanceFilter {
	day := Day(date)
	return AttendanceFilter{ClassID: classID, From: day, To: day}
}

// InMonth фильтр на все дни месяца для класса
func InMonth(classID string, year int, month time.Month) AttendanceFilter {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return AttendanceFilter{ClassID: classID, From: start, To: start.AddDate(0, 1, -1)}
}

// Day нормализует время до полуночи UTC того же календарного дня
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay сравнивает только календарные дни
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
