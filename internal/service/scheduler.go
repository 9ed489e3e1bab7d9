package service

import (
	"context"
	"time"

	"coaching-attendance/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StudentLister источник всех учеников для ночного пересчета
type StudentLister interface {
	GetAll(ctx context.Context) ([]models.Student, error)
}

// RecomputeScheduler по расписанию пересчитывает проценты посещаемости всех
// учеников. Так выравниваются проценты после параллельных правок одной
// ведомости из разных сессий.
type RecomputeScheduler struct {
	cron     *cron.Cron
	engine   *ReconciliationEngine
	students StudentLister
	holidays *HolidayService
	timeout  time.Duration
	logger   *logrus.Logger
}

func NewRecomputeScheduler(engine *ReconciliationEngine, students StudentLister, schedule string) (*RecomputeScheduler, error) {
	s := &RecomputeScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		engine:   engine,
		students: students,
		timeout:  10 * time.Minute,
		logger:   newLogger(),
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, err
	}

	return s, nil
}

// WithHolidays включает отметку наступивших праздников календаря перед пересчетом
func (s *RecomputeScheduler) WithHolidays(h *HolidayService) *RecomputeScheduler {
	s.holidays = h
	return s
}

func (s *RecomputeScheduler) Start() {
	s.logger.Info("Recompute scheduler started")
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (s *RecomputeScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Recompute scheduler stopped")
}

func (s *RecomputeScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled recompute failed")
	}
}

// RunOnce пересчитывает проценты всех учеников и возвращает их количество
func (s *RecomputeScheduler) RunOnce(ctx context.Context) (int, error) {
	students, err := s.students.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	if s.holidays != nil {
		s.applyHolidays(ctx, students)
	}

	ids := make([]uint, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}

	percentages, err := s.engine.RecomputeAll(ctx, ids)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, st := range students {
		if percentages[st.ID] != st.AttendancePercentage {
			changed++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"students": len(ids),
		"changed":  changed,
	}).Info("Attendance percentages recomputed")

	return len(ids), nil
}

// applyHolidays ошибки по одному классу не мешают остальным и пересчету
func (s *RecomputeScheduler) applyHolidays(ctx context.Context, students []models.Student) {
	seen := make(map[string]struct{})
	for _, st := range students {
		if _, ok := seen[st.ClassID]; ok {
			continue
		}
		seen[st.ClassID] = struct{}{}

		if _, err := s.holidays.ApplyCalendar(ctx, st.ClassID); err != nil {
			s.logger.WithError(err).WithField("class_id", st.ClassID).Error("Failed to apply calendar holidays")
		}
	}
}
