package attendance

import (
	"time"

	"coaching-attendance/internal/models"

	"github.com/google/uuid"
)

// StatusUpdate обновление статуса существующей записи
type StatusUpdate struct {
	ID        uuid.UUID               `json:"id"`
	StudentID uint                    `json:"student_id"`
	Status    models.AttendanceStatus `json:"status"`
}

// WritePlan набор вставок и обновлений для одной даты
type WritePlan struct {
	Inserts []models.AttendanceRecord `json:"inserts"`
	Updates []StatusUpdate            `json:"updates"`
}

func (p WritePlan) Len() int {
	return len(p.Inserts) + len(p.Updates)
}

// StudentIDs возвращает затронутых учеников в порядке плана
func (p WritePlan) StudentIDs() []uint {
	seen := make(map[uint]struct{}, p.Len())
	ids := make([]uint, 0, p.Len())
	add := func(id uint) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, rec := range p.Inserts {
		add(rec.StudentID)
	}
	for _, upd := range p.Updates {
		add(upd.StudentID)
	}
	return ids
}

// Reconcile сравнивает ведомость с сохраненными записями на дату.
// Для ученика с записью формируется обновление, иначе вставка. Каждая строка
// ведомости пишется при каждом сохранении, даже если статус не изменился.
func Reconcile(model DayModel, date time.Time, existing []models.AttendanceRecord) WritePlan {
	day := models.Day(date)

	ids := make(map[uint]uuid.UUID, len(existing))
	for _, rec := range existing {
		if !rec.IsPersisted() || !models.SameDay(rec.Date, day) {
			continue
		}
		ids[rec.StudentID] = rec.ID
	}

	plan := WritePlan{
		Inserts: []models.AttendanceRecord{},
		Updates: []StatusUpdate{},
	}
	for _, e := range model.Entries {
		if id, ok := ids[e.StudentID]; ok {
			plan.Updates = append(plan.Updates, StatusUpdate{
				ID:        id,
				StudentID: e.StudentID,
				Status:    e.Status,
			})
			continue
		}
		plan.Inserts = append(plan.Inserts, models.AttendanceRecord{
			StudentID: e.StudentID,
			Date:      day,
			Status:    e.Status,
		})
	}

	return plan
}

// RecomputePercentage считает процент посещаемости по всей истории ученика.
// Праздничные дни входят в знаменатель, но не в числитель.
func RecomputePercentage(history []models.AttendanceRecord) int {
	present := 0
	for _, rec := range history {
		if rec.Status == models.StatusPresent {
			present++
		}
	}
	return percent(present, len(history))
}
