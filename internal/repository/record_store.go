package repository

import (
	"context"

	"coaching-attendance/internal/models"

	"github.com/google/uuid"
)

// RecordStore объединяет репозитории учеников и посещаемости в хранилище
// для движка сверки
type RecordStore struct {
	Students   StudentRepository
	Attendance AttendanceRepository
}

func NewRecordStore(students StudentRepository, attendance AttendanceRepository) *RecordStore {
	return &RecordStore{
		Students:   students,
		Attendance: attendance,
	}
}

func (s *RecordStore) QueryRoster(ctx context.Context, classID string) ([]models.Student, error) {
	return s.Students.GetByClass(ctx, classID)
}

func (s *RecordStore) QueryAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	return s.Attendance.Find(ctx, filter)
}

func (s *RecordStore) InsertAttendance(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	return s.Attendance.BulkCreate(ctx, records)
}

func (s *RecordStore) UpdateAttendanceStatus(ctx context.Context, id uuid.UUID, status models.AttendanceStatus) error {
	return s.Attendance.UpdateStatus(ctx, id, status)
}

func (s *RecordStore) UpdateStudentPercentage(ctx context.Context, studentID uint, percentage int) error {
	return s.Students.UpdatePercentage(ctx, studentID, percentage)
}
