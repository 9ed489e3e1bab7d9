package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"coaching-attendance/internal/attendance"

	"github.com/sirupsen/logrus"
)

// DayKey ключ ведомости: класс и дата
type DayKey struct {
	ClassID string
	Date    string
}

func KeyFor(classID string, date time.Time) DayKey {
	return DayKey{ClassID: classID, Date: date.Format("2006-01-02")}
}

// MonthKey ключ месячного календаря класса
type MonthKey struct {
	ClassID string
	Year    int
	Month   time.Month
}

func MonthKeyFor(classID string, date time.Time) MonthKey {
	return MonthKey{ClassID: classID, Year: date.Year(), Month: date.Month()}
}

type CommitState int

const (
	StateIdle CommitState = iota
	StateApplying
)

func (s CommitState) String() string {
	if s == StateApplying {
		return "applying"
	}
	return "idle"
}

// MutationController хранит отображаемые ведомости и календари и проводит
// сохранение с оптимистичным обновлением: новая ведомость видна сразу, при
// ошибке восстанавливается снимок.
type MutationController struct {
	engine Committer
	logger *logrus.Logger

	mu       sync.Mutex
	views    map[DayKey]attendance.DayModel
	rollups  map[MonthKey][]attendance.CalendarDayStat
	inFlight map[DayKey]struct{}

	// поколение календаря растет при каждой инвалидации месяца
	rollupGen map[MonthKey]uint64
}

func NewMutationController(engine Committer) *MutationController {
	return &MutationController{
		engine:    engine,
		logger:    newLogger(),
		views:     make(map[DayKey]attendance.DayModel),
		rollups:   make(map[MonthKey][]attendance.CalendarDayStat),
		inFlight:  make(map[DayKey]struct{}),
		rollupGen: make(map[MonthKey]uint64),
	}
}

// Commit сохраняет предложенную ведомость. Отменить можно только до начала
// записи: после публикации оптимистичного состояния контекст вызывающего
// больше не прерывает запись. Второе сохранение той же ведомости во время
// записи отклоняется с ErrCommitInFlight.
func (c *MutationController) Commit(ctx context.Context, proposed attendance.DayModel) (*CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if proposed.Len() == 0 {
		return nil, ErrNothingToMark
	}

	key := KeyFor(proposed.ClassID, proposed.Date)
	log := c.logger.WithFields(logrus.Fields{
		"class_id": key.ClassID,
		"date":     key.Date,
	})

	c.mu.Lock()
	if _, busy := c.inFlight[key]; busy {
		c.mu.Unlock()
		log.Warn("Commit rejected, another commit is in flight")
		return nil, ErrCommitInFlight
	}
	snapshot, hadSnapshot := c.views[key]
	if hadSnapshot {
		snapshot = snapshot.Clone()
	}
	c.views[key] = proposed.Clone()
	c.inFlight[key] = struct{}{}
	c.mu.Unlock()

	log.Debug("Optimistic day view applied")

	result, err := c.engine.Commit(context.WithoutCancel(ctx), proposed.Clone())

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)

	if err != nil {
		if hadSnapshot {
			c.views[key] = snapshot
		} else {
			delete(c.views, key)
		}
		// часть записей могла успеть сохраниться
		c.invalidateRollup(MonthKeyFor(proposed.ClassID, proposed.Date))
		log.WithError(err).Warn("Commit failed, day view rolled back")
		return nil, &CommitError{Key: key, Err: err}
	}

	c.invalidateRollup(MonthKeyFor(proposed.ClassID, proposed.Date))
	log.Info("Commit succeeded")

	return result, nil
}

// View возвращает копию отображаемой ведомости
func (c *MutationController) View(key DayKey) (attendance.DayModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.views[key]
	if !ok {
		return attendance.DayModel{}, false
	}
	return m.Clone(), true
}

// Store кладет свежую ведомость в кэш. Во время записи кэш не трогается,
// возвращается false.
func (c *MutationController) Store(model attendance.DayModel) bool {
	key := KeyFor(model.ClassID, model.Date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.views[key] = model.Clone()
	return true
}

// Discard убирает ведомость из кэша, например при уходе со страницы
func (c *MutationController) Discard(key DayKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[key]; busy {
		return
	}
	delete(c.views, key)
}

func (c *MutationController) State(key DayKey) CommitState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[key]; busy {
		return StateApplying
	}
	return StateIdle
}

func (c *MutationController) Rollup(key MonthKey) ([]attendance.CalendarDayStat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.rollups[key]
	if !ok {
		return nil, false
	}
	out := make([]attendance.CalendarDayStat, len(stats))
	copy(out, stats)
	return out, true
}

// RollupGeneration текущее поколение календаря. Его нужно прочитать до
// загрузки записей месяца и передать в StoreRollup.
func (c *MutationController) RollupGeneration(key MonthKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollupGen[key]
}

// StoreRollup кладет календарь в кэш, если с момента чтения gen месяц не
// инвалидировался и ни одна ведомость этого месяца не сохраняется.
// Возвращает false, если календарь устарел и не сохранен.
func (c *MutationController) StoreRollup(key MonthKey, gen uint64, stats []attendance.CalendarDayStat) bool {
	out := make([]attendance.CalendarDayStat, len(stats))
	copy(out, stats)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rollupGen[key] != gen || c.applyingInMonth(key) {
		return false
	}
	c.rollups[key] = out
	return true
}

func (c *MutationController) invalidateRollup(key MonthKey) {
	delete(c.rollups, key)
	c.rollupGen[key]++
}

// applyingInMonth вызывается под c.mu
func (c *MutationController) applyingInMonth(key MonthKey) bool {
	prefix := fmt.Sprintf("%04d-%02d-", key.Year, int(key.Month))
	for k := range c.inFlight {
		if k.ClassID == key.ClassID && strings.HasPrefix(k.Date, prefix) {
			return true
		}
	}
	return false
}
