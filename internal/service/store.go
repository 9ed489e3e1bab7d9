package service

import (
	"context"

	"coaching-attendance/internal/models"

	"github.com/google/uuid"
)

// RecordStore хранилище учеников и посещаемости, с которым работает движок сверки
type RecordStore interface {
	QueryRoster(ctx context.Context, classID string) ([]models.Student, error)
	QueryAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	InsertAttendance(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error)
	UpdateAttendanceStatus(ctx context.Context, id uuid.UUID, status models.AttendanceStatus) error
	UpdateStudentPercentage(ctx context.Context, studentID uint, percentage int) error
}
