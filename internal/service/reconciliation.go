package service

import (
	"context"
	"sync"
	"time"

	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/models"
	"coaching-attendance/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CommitResult итог сохранения ведомости
type CommitResult struct {
	CommitID    uuid.UUID                 `json:"commit_id"`
	Plan        attendance.WritePlan      `json:"plan"`
	Inserted    []models.AttendanceRecord `json:"inserted"`
	Percentages map[uint]int              `json:"percentages"`
}

// Committer выполняет сохранение ведомости
type Committer interface {
	Commit(ctx context.Context, model attendance.DayModel) (*CommitResult, error)
}

// ReconciliationEngine сверяет ведомость с хранилищем, выполняет план записи
// и пересчитывает проценты посещаемости затронутых учеников
type ReconciliationEngine struct {
	store   RecordStore
	workers int
	logger  *logrus.Logger
}

func NewReconciliationEngine(store RecordStore, workers int) *ReconciliationEngine {
	if workers < 1 {
		workers = 1
	}

	return &ReconciliationEngine{
		store:   store,
		workers: workers,
		logger:  newLogger(),
	}
}

// Commit сохраняет ведомость. Любая ошибка записи означает неудачу всего
// сохранения, частичный результат не возвращается.
func (e *ReconciliationEngine) Commit(ctx context.Context, model attendance.DayModel) (*CommitResult, error) {
	if model.Len() == 0 {
		return nil, ErrNothingToMark
	}

	commitID := uuid.New()
	log := e.logger.WithFields(logrus.Fields{
		"commit_id": commitID,
		"class_id":  model.ClassID,
		"date":      model.Date.Format("2006-01-02"),
	})
	log.WithField("students", model.Len()).Info("Committing day attendance")

	existing, err := e.store.QueryAttendance(ctx, models.OnDate(model.ClassID, model.Date))
	if err != nil {
		log.WithError(err).Error("Failed to load persisted attendance")
		return nil, &TransportError{Op: "загрузка сохраненной посещаемости", Err: err}
	}

	plan := attendance.Reconcile(model, model.Date, existing)
	log.WithFields(logrus.Fields{
		"inserts": len(plan.Inserts),
		"updates": len(plan.Updates),
	}).Debug("Write plan ready")

	inserted, err := e.apply(ctx, plan)
	if err != nil {
		log.WithError(err).Error("Failed to apply write plan")
		return nil, err
	}

	percentages, err := e.RecomputeAll(ctx, plan.StudentIDs())
	if err != nil {
		log.WithError(err).Error("Failed to recompute attendance percentages")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"inserted": len(inserted),
		"updated":  len(plan.Updates),
	}).Info("Day attendance committed")

	return &CommitResult{
		CommitID:    commitID,
		Plan:        plan,
		Inserted:    inserted,
		Percentages: percentages,
	}, nil
}

// apply вставляет новые записи одной пачкой и обновляет существующие
func (e *ReconciliationEngine) apply(ctx context.Context, plan attendance.WritePlan) ([]models.AttendanceRecord, error) {
	inserted := []models.AttendanceRecord{}
	if len(plan.Inserts) > 0 {
		var err error
		inserted, err = e.store.InsertAttendance(ctx, plan.Inserts)
		if err != nil {
			return nil, &TransportError{Op: "вставка посещаемости", Err: err}
		}
	}

	for _, upd := range plan.Updates {
		err := e.store.UpdateAttendanceStatus(ctx, upd.ID, upd.Status)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ConflictError{RecordID: upd.ID, StudentID: upd.StudentID, Err: err}
		}
		if err != nil {
			return nil, &TransportError{
				Op:  "обновление посещаемости",
				Err: errors.Wrapf(err, "record %s", upd.ID),
			}
		}
	}

	return inserted, nil
}

// RecomputeAll пересчитывает проценты учеников. Разные ученики обрабатываются
// параллельно, не больше workers одновременно.
func (e *ReconciliationEngine) RecomputeAll(ctx context.Context, studentIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, id := range studentIDs {
		g.Go(func() error {
			pct, err := e.RecomputeStudent(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = pct
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecomputeStudent пересчитывает процент по всей истории ученика и сохраняет его
func (e *ReconciliationEngine) RecomputeStudent(ctx context.Context, studentID uint) (int, error) {
	started := time.Now()

	history, err := e.store.QueryAttendance(ctx, models.AttendanceFilter{StudentID: studentID})
	if err != nil {
		return 0, &TransportError{
			Op:  "загрузка истории ученика",
			Err: errors.Wrapf(err, "student %d", studentID),
		}
	}

	pct := attendance.RecomputePercentage(history)

	err = e.store.UpdateStudentPercentage(ctx, studentID, pct)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, &ConflictError{StudentID: studentID, Err: err}
	}
	if err != nil {
		return 0, &TransportError{
			Op:  "сохранение процента посещаемости",
			Err: errors.Wrapf(err, "student %d", studentID),
		}
	}

	e.logger.WithFields(logrus.Fields{
		"student_id": studentID,
		"records":    len(history),
		"percentage": pct,
		"took":       time.Since(started),
	}).Debug("Attendance percentage recomputed")

	return pct, nil
}
