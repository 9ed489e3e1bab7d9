package service

import (
	"context"
	"time"

	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/models"
	"coaching-attendance/internal/repository"

	"github.com/sirupsen/logrus"
)

// AttendanceService загружает ведомости и календари и передает сохранение
// контроллеру
type AttendanceService struct {
	store      RecordStore
	students   repository.StudentRepository
	controller *MutationController
	logger     *logrus.Logger
}

func NewAttendanceService(
	store RecordStore,
	students repository.StudentRepository,
	controller *MutationController,
) *AttendanceService {
	return &AttendanceService{
		store:      store,
		students:   students,
		controller: controller,
		logger:     newLogger(),
	}
}

// LoadDay строит ведомость класса на дату. Пока ведомость сохраняется,
// возвращается оптимистичное состояние из кэша.
func (s *AttendanceService) LoadDay(ctx context.Context, classID string, date time.Time, search string) (attendance.DayModel, error) {
	key := KeyFor(classID, date)
	if s.controller.State(key) == StateApplying {
		if view, ok := s.controller.View(key); ok {
			return attendance.Search(view, search), nil
		}
	}

	roster, err := s.store.QueryRoster(ctx, classID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load class roster")
		return attendance.DayModel{}, err
	}

	records, err := s.store.QueryAttendance(ctx, models.OnDate(classID, date))
	if err != nil {
		s.logger.WithError(err).Error("Failed to load day attendance")
		return attendance.DayModel{}, err
	}

	model := attendance.BuildDay(roster, records, classID, date, search)
	// в кэш попадает только полная ведомость, она же снимок для отката
	if search == "" {
		s.controller.Store(model)
	}

	s.logger.WithFields(logrus.Fields{
		"class_id": classID,
		"date":     key.Date,
		"students": model.Len(),
		"records":  len(records),
	}).Debug("Day attendance loaded")

	return model, nil
}

// LoadMonth возвращает календарь месяца, пересчитывая его только после
// сохранений в этом месяце
func (s *AttendanceService) LoadMonth(ctx context.Context, classID string, year int, month time.Month, selected time.Time) ([]attendance.CalendarDayStat, error) {
	key := MonthKey{ClassID: classID, Year: year, Month: month}
	if cached, ok := s.controller.Rollup(key); ok {
		return attendance.Reselect(cached, selected), nil
	}

	gen := s.controller.RollupGeneration(key)

	records, err := s.store.QueryAttendance(ctx, models.InMonth(classID, year, month))
	if err != nil {
		s.logger.WithError(err).Error("Failed to load month attendance")
		return nil, err
	}

	days := attendance.BuildMonth(records, year, month, selected)
	if !s.controller.StoreRollup(key, gen, days) {
		s.logger.WithFields(logrus.Fields{
			"class_id": classID,
			"year":     year,
			"month":    int(month),
		}).Debug("Month rollup changed while loading, not cached")
	}

	return days, nil
}

// Commit сохраняет ведомость через контроллер
func (s *AttendanceService) Commit(ctx context.Context, model attendance.DayModel) (*CommitResult, error) {
	return s.controller.Commit(ctx, model)
}

// Mark загружает ведомость, применяет изменения статусов и сохраняет ее.
// Ученики, которых нет в ведомости, пропускаются.
func (s *AttendanceService) Mark(ctx context.Context, classID string, date time.Time, statuses map[uint]models.AttendanceStatus) (attendance.DayModel, *CommitResult, error) {
	model, err := s.LoadDay(ctx, classID, date, "")
	if err != nil {
		return attendance.DayModel{}, nil, err
	}
	if model.Len() == 0 {
		return model, nil, ErrEmptyRoster
	}

	for id, status := range statuses {
		model = attendance.SetStatus(model, id, status)
	}

	result, err := s.controller.Commit(ctx, model)
	if err != nil {
		return attendance.DayModel{}, nil, err
	}
	return model, result, nil
}

// MarkAll отмечает весь класс одним статусом и сохраняет ведомость
func (s *AttendanceService) MarkAll(ctx context.Context, classID string, date time.Time, status models.AttendanceStatus) (attendance.DayModel, *CommitResult, error) {
	model, err := s.LoadDay(ctx, classID, date, "")
	if err != nil {
		return attendance.DayModel{}, nil, err
	}
	if model.Len() == 0 {
		return model, nil, ErrEmptyRoster
	}

	model = attendance.BulkSetStatus(model, status)

	result, err := s.controller.Commit(ctx, model)
	if err != nil {
		return attendance.DayModel{}, nil, err
	}
	return model, result, nil
}

// AddStudent добавляет ученика в список класса
func (s *AttendanceService) AddStudent(ctx context.Context, name, classID string, roll int) (*models.Student, error) {
	student := &models.Student{
		Name:       name,
		ClassID:    classID,
		RollNumber: roll,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// StudentHistory возвращает ученика и всю его историю посещаемости
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID uint) (*models.Student, []models.AttendanceRecord, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, ErrStudentNotFound
	}

	history, err := s.store.QueryAttendance(ctx, models.AttendanceFilter{StudentID: studentID})
	if err != nil {
		return nil, nil, err
	}
	return student, history, nil
}

func (s *AttendanceService) Classes(ctx context.Context) ([]string, error) {
	return s.students.GetClasses(ctx)
}

// State состояние сохранения ведомости класса на дату
func (s *AttendanceService) State(classID string, date time.Time) CommitState {
	return s.controller.State(KeyFor(classID, date))
}
