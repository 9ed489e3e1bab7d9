// Package attendance содержит чистую логику дневной ведомости, месячного
// календаря и сверки с сохраненными записями. Пакет не выполняет ввод-вывод.
package attendance

import (
	"math"
	"strings"
	"time"

	"coaching-attendance/internal/models"
)

// DayEntry строка дневной ведомости
type DayEntry struct {
	StudentID  uint                    `json:"student_id"`
	Name       string                  `json:"name"`
	RollNumber int                     `json:"roll_number"`
	Status     models.AttendanceStatus `json:"status"`
}

// DayModel ведомость класса на одну дату
type DayModel struct {
	ClassID string     `json:"class_id"`
	Date    time.Time  `json:"date"`
	Entries []DayEntry `json:"entries"`
}

// DayStats сводка по дневной ведомости
type DayStats struct {
	Present              int `json:"present"`
	Absent               int `json:"absent"`
	Leave                int `json:"leave"`
	Holiday              int `json:"holiday"`
	Total                int `json:"total"`
	AttendancePercentage int `json:"attendance_percentage"`
}

// BuildDay собирает ведомость из списка класса и записей на дату.
// Ученик без записи считается отсутствующим.
func BuildDay(roster []models.Student, records []models.AttendanceRecord, classID string, date time.Time, search string) DayModel {
	byStudent := make(map[uint]models.AttendanceStatus, len(records))
	for _, rec := range records {
		if models.SameDay(rec.Date, date) {
			byStudent[rec.StudentID] = rec.Status
		}
	}

	needle := searchNeedle(search)

	model := DayModel{
		ClassID: classID,
		Date:    models.Day(date),
		Entries: []DayEntry{},
	}
	for _, st := range roster {
		if st.ClassID != classID {
			continue
		}
		if !matchesName(st.Name, needle) {
			continue
		}

		status, ok := byStudent[st.ID]
		if !ok {
			status = models.StatusAbsent
		}

		model.Entries = append(model.Entries, DayEntry{
			StudentID:  st.ID,
			Name:       st.Name,
			RollNumber: st.RollNumber,
			Status:     status,
		})
	}

	return model
}

// Search возвращает копию ведомости только с учениками, в имени которых
// есть search без учета регистра. Пустой search возвращает всю ведомость.
func Search(model DayModel, search string) DayModel {
	needle := searchNeedle(search)
	out := DayModel{ClassID: model.ClassID, Date: model.Date, Entries: []DayEntry{}}
	for _, e := range model.Entries {
		if matchesName(e.Name, needle) {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

func searchNeedle(search string) string {
	return strings.ToLower(strings.TrimSpace(search))
}

func matchesName(name, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(name), needle)
}

// SetStatus возвращает копию ведомости с новым статусом одного ученика.
// Неизвестный ученик не является ошибкой.
func SetStatus(model DayModel, studentID uint, status models.AttendanceStatus) DayModel {
	out := model.Clone()
	for i := range out.Entries {
		if out.Entries[i].StudentID == studentID {
			out.Entries[i].Status = status
			break
		}
	}
	return out
}

// BulkSetStatus возвращает копию ведомости, где у всех учеников один статус
func BulkSetStatus(model DayModel, status models.AttendanceStatus) DayModel {
	out := model.Clone()
	for i := range out.Entries {
		out.Entries[i].Status = status
	}
	return out
}

func (m DayModel) Clone() DayModel {
	out := m
	out.Entries = make([]DayEntry, len(m.Entries))
	copy(out.Entries, m.Entries)
	return out
}

// Equal сравнивает ведомости построчно
func (m DayModel) Equal(other DayModel) bool {
	if m.ClassID != other.ClassID || !models.SameDay(m.Date, other.Date) {
		return false
	}
	if len(m.Entries) != len(other.Entries) {
		return false
	}
	for i := range m.Entries {
		if m.Entries[i] != other.Entries[i] {
			return false
		}
	}
	return true
}

func (m DayModel) Len() int {
	return len(m.Entries)
}

// Entry ищет строку ученика
func (m DayModel) Entry(studentID uint) (DayEntry, bool) {
	for _, e := range m.Entries {
		if e.StudentID == studentID {
			return e, true
		}
	}
	return DayEntry{}, false
}

// EntryByRoll ищет строку по номеру в журнале
func (m DayModel) EntryByRoll(roll int) (DayEntry, bool) {
	for _, e := range m.Entries {
		if e.RollNumber == roll {
			return e, true
		}
	}
	return DayEntry{}, false
}

// Stats считает статусы. Процент считается от всех учеников ведомости.
func (m DayModel) Stats() DayStats {
	var stats DayStats
	for _, e := range m.Entries {
		switch e.Status {
		case models.StatusPresent:
			stats.Present++
		case models.StatusAbsent:
			stats.Absent++
		case models.StatusLeave:
			stats.Leave++
		case models.StatusHoliday:
			stats.Holiday++
		}
	}
	stats.Total = len(m.Entries)
	stats.AttendancePercentage = percent(stats.Present, stats.Total)
	return stats
}

// percent округляет part/whole*100 до целого, 0 при пустом знаменателе
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}
