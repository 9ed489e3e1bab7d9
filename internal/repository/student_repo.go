package repository

import (
	"context"
	"errors"
	"time"

	"coaching-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByClass(ctx context.Context, classID string) ([]models.Student, error)
	GetAll(ctx context.Context) ([]models.Student, error)
	GetClasses(ctx context.Context) ([]string, error)
	UpdatePercentage(ctx context.Context, id uint, percentage int) error
}

type GormStudentRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormStudentRepository(db *gorm.DB) (*GormStudentRepository, error) {
	logger := newLogger()

	// Автомиграция
	if err := db.AutoMigrate(&models.Student{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate students table")
		return nil, err
	}

	logger.Info("Student repository initialized")

	return &GormStudentRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormStudentRepository) Create(ctx context.Context, student *models.Student) error {
	r.logger.WithFields(logrus.Fields{
		"name":     student.Name,
		"class_id": student.ClassID,
		"roll":     student.RollNumber,
	}).Debug("Creating student")

	if !student.IsValid() {
		r.logger.WithField("class_id", student.ClassID).Warn("Invalid student data")
		return errors.New("некорректные данные ученика")
	}

	result := r.db.WithContext(ctx).Create(student)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create student")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":       student.ID,
		"class_id": student.ClassID,
	}).Info("Student created successfully")

	return nil
}

func (r *GormStudentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	result := r.db.WithContext(ctx).First(&student, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Student not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get student by ID")
		return nil, result.Error
	}

	return &student, nil
}

// GetByClass возвращает список класса по номеру в журнале
func (r *GormStudentRepository) GetByClass(ctx context.Context, classID string) ([]models.Student, error) {
	var students []models.Student
	result := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("roll_number ASC, id ASC").
		Find(&students)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get students by class")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"class_id": classID,
		"count":    len(students),
	}).Debug("Retrieved class roster")

	return students, nil
}

func (r *GormStudentRepository) GetAll(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	result := r.db.WithContext(ctx).Order("class_id ASC, roll_number ASC").Find(&students)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get students")
		return nil, result.Error
	}

	return students, nil
}

// GetClasses возвращает список классов, в которых есть ученики
func (r *GormStudentRepository) GetClasses(ctx context.Context) ([]string, error) {
	var classes []string
	result := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Distinct("class_id").
		Order("class_id ASC").
		Pluck("class_id", &classes)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get classes")
		return nil, result.Error
	}

	return classes, nil
}

func (r *GormStudentRepository) UpdatePercentage(ctx context.Context, id uint, percentage int) error {
	r.logger.WithFields(logrus.Fields{
		"student_id": id,
		"percentage": percentage,
	}).Debug("Updating attendance percentage")

	if percentage < 0 || percentage > 100 {
		return errors.New("процент посещаемости вне диапазона 0-100")
	}

	result := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attendance_percentage": percentage,
			"updated_at":            time.Now(),
		})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update attendance percentage")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("student_id", id).Warn("Student not found for percentage update")
		return ErrNotFound
	}

	return nil
}
