package repository

import (
	"context"
	"errors"
	"time"

	"coaching-attendance/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AttendanceRepository interface {
	Find(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	BulkCreate(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AttendanceStatus) error
}

type GormAttendanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceRepository(db *gorm.DB) (*GormAttendanceRepository, error) {
	logger := newLogger()

	// Автомиграция
	if err := db.AutoMigrate(&models.AttendanceRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance_records table")
		return nil, err
	}

	logger.Info("Attendance repository initialized")

	return &GormAttendanceRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Find выбирает записи по классу, ученику и диапазону дат
func (r *GormAttendanceRepository) Find(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.AttendanceRecord{})

	if filter.ClassID != "" {
		query = query.
			Joins("JOIN students ON students.id = attendance_records.student_id").
			Where("students.class_id = ?", filter.ClassID)
	}
	if filter.StudentID != 0 {
		query = query.Where("attendance_records.student_id = ?", filter.StudentID)
	}
	if !filter.From.IsZero() {
		query = query.Where("attendance_records.date >= ?", models.Day(filter.From))
	}
	if !filter.To.IsZero() {
		query = query.Where("attendance_records.date <= ?", models.Day(filter.To))
	}

	var records []models.AttendanceRecord
	result := query.
		Select("attendance_records.*").
		Order("attendance_records.date ASC, attendance_records.student_id ASC").
		Find(&records)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to query attendance records")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"class_id":   filter.ClassID,
		"student_id": filter.StudentID,
		"from":       formatDay(filter.From),
		"to":         formatDay(filter.To),
		"count":      len(records),
	}).Debug("Retrieved attendance records")

	return records, nil
}

// BulkCreate вставляет пачку записей в одной транзакции
func (r *GormAttendanceRepository) BulkCreate(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	if len(records) == 0 {
		return []models.AttendanceRecord{}, nil
	}

	batch := make([]models.AttendanceRecord, len(records))
	for i, rec := range records {
		if !rec.IsValid() {
			r.logger.WithFields(logrus.Fields{
				"student_id": rec.StudentID,
				"date":       formatDay(rec.Date),
				"status":     rec.Status,
			}).Warn("Invalid attendance record data")
			return nil, errors.New("некорректные данные посещаемости")
		}
		rec.Date = models.Day(rec.Date)
		batch[i] = rec
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to insert attendance records")
		return nil, err
	}

	r.logger.WithField("count", len(batch)).Info("Attendance records inserted")

	return batch, nil
}

func (r *GormAttendanceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AttendanceStatus) error {
	if !status.Valid() {
		return errors.New("некорректный статус посещаемости")
	}

	result := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update attendance status")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("Attendance record not found for update")
		return ErrNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"id":     id,
		"status": status,
	}).Debug("Attendance status updated")

	return nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
