package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/models"
	"coaching-attendance/internal/service"
	"coaching-attendance/pkg/holidays"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

const (
	callbackMark = "mark:"
	callbackSave = "save"

	// больше строк с кнопками Telegram показывает неудобно
	maxKeyboardRows = 40
)

type markArg struct {
	Roll   int
	Status models.AttendanceStatus
}

var statusIcons = map[models.AttendanceStatus]string{
	models.StatusPresent: "✅",
	models.StatusAbsent:  "❌",
	models.StatusLeave:   "🏖",
	models.StatusHoliday: "🎉",
}

var statusNames = map[models.AttendanceStatus]string{
	models.StatusPresent: "присутствует",
	models.StatusAbsent:  "отсутствует",
	models.StatusLeave:   "отпуск",
	models.StatusHoliday: "праздник",
}

// followsToday дата не задана явно и должна сдвигаться вместе с текущим днем
func followsToday(args string) bool {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "", "сегодня", "today":
		return true
	}
	return false
}

// parseDate понимает ГГГГ-ММ-ДД, ДД.ММ.ГГГГ, "сегодня" и "вчера"
func parseDate(args string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "", "сегодня", "today":
		return models.Day(now), nil
	case "вчера", "yesterday":
		return models.Day(now).AddDate(0, 0, -1), nil
	}

	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(args)); err == nil {
			return models.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("неверный формат даты %q, используйте ГГГГ-ММ-ДД", args)
}

func parseYearMonth(args string) (int, time.Month, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return 0, 0, errors.New("укажите год и месяц")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, fmt.Errorf("неверный год %q", parts[0])
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("неверный месяц %q", parts[1])
	}
	return year, time.Month(month), nil
}

// parseMarks разбирает пары "номер статус"
func parseMarks(args string) ([]markArg, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts)%2 != 0 {
		return nil, errors.New("укажите пары номер и статус")
	}

	out := make([]markArg, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		roll, err := strconv.Atoi(parts[i])
		if err != nil || roll < 1 {
			return nil, fmt.Errorf("неверный номер ученика %q", parts[i])
		}
		status, ok := models.ParseStatus(parts[i+1])
		if !ok {
			return nil, fmt.Errorf("неизвестный статус %q", parts[i+1])
		}
		out = append(out, markArg{Roll: roll, Status: status})
	}
	return out, nil
}

// applyMarks применяет отметки по номерам и возвращает номера, которых нет в ведомости
func applyMarks(model attendance.DayModel, marks []markArg) (attendance.DayModel, []int) {
	var unknown []int
	for _, m := range marks {
		entry, ok := model.EntryByRoll(m.Roll)
		if !ok {
			unknown = append(unknown, m.Roll)
			continue
		}
		model = attendance.SetStatus(model, entry.StudentID, m.Status)
	}
	return model, unknown
}

func parseMarkCallback(data string) (uint, models.AttendanceStatus, error) {
	parts := strings.Split(strings.TrimPrefix(data, callbackMark), ":")
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("bad callback %q", data)
	}

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", errors.Wrap(err, "student id")
	}
	status, ok := models.ParseStatus(parts[1])
	if !ok {
		return 0, "", fmt.Errorf("bad status %q", parts[1])
	}
	return uint(id), status, nil
}

func markCallback(studentID uint, status models.AttendanceStatus) string {
	return fmt.Sprintf("%s%d:%s", callbackMark, studentID, status)
}

// rosterKeyboard строка кнопок на каждого ученика и кнопка сохранения
func rosterKeyboard(model attendance.DayModel) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, model.Len()+1)
	for _, e := range model.Entries {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. %s", e.RollNumber, e.Name), markCallback(e.StudentID, e.Status)),
		}
		for _, st := range []models.AttendanceStatus{models.StatusPresent, models.StatusAbsent, models.StatusLeave} {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(statusIcons[st], markCallback(e.StudentID, st)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💾 Сохранить", callbackSave),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatRoster(model attendance.DayModel, dirty, calendarHoliday bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Класс %s, %s\n\n", model.ClassID, model.Date.Format("02.01.2006"))

	if model.Len() == 0 {
		b.WriteString("📭 Ученики не найдены.")
		return b.String()
	}

	for _, e := range model.Entries {
		fmt.Fprintf(&b, "%d. %s %s %s\n", e.RollNumber, e.Name, statusIcons[e.Status], statusNames[e.Status])
	}

	st := model.Stats()
	fmt.Fprintf(&b, "\n✅ %d  ❌ %d  🏖 %d  🎉 %d\n📊 Посещаемость: %d%%",
		st.Present, st.Absent, st.Leave, st.Holiday, st.AttendancePercentage)

	if calendarHoliday && st.Holiday < st.Total {
		b.WriteString("\n\n🎉 По календарю это праздник: /markall h")
	}
	if dirty {
		b.WriteString("\n\n✏️ Есть несохраненные изменения, /save чтобы сохранить")
	}
	return b.String()
}

func formatCommit(model attendance.DayModel, result *service.CommitResult) string {
	return fmt.Sprintf("💾 Ведомость класса %s за %s сохранена\nНовых записей: %d, обновлено: %d\n📊 Посещаемость: %d%%",
		model.ClassID,
		model.Date.Format("02.01.2006"),
		len(result.Plan.Inserts),
		len(result.Plan.Updates),
		model.Stats().AttendancePercentage,
	)
}

func formatCalendar(classID string, year int, month time.Month, days []attendance.CalendarDayStat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗓 Класс %s, %02d.%d\n\n", classID, int(month), year)

	marked := 0
	for _, d := range days {
		s := d.Stats
		if s.Present+s.Absent+s.Leave+s.Holiday == 0 {
			continue
		}
		marked++

		prefix := "  "
		switch {
		case d.IsSelected:
			prefix = "▶ "
		case d.IsToday:
			prefix = "• "
		}
		if s.Holiday > 0 && s.Present+s.Absent+s.Leave == 0 {
			fmt.Fprintf(&b, "%s%02d: 🎉 праздник\n", prefix, d.Date.Day())
			continue
		}
		fmt.Fprintf(&b, "%s%02d: ✅ %d ❌ %d 🏖 %d  %d%%\n", prefix, d.Date.Day(), s.Present, s.Absent, s.Leave, s.Percentage)
	}

	if marked == 0 {
		b.WriteString("📭 За этот месяц отметок нет.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatCalendarHolidays строка с праздниками календаря или пустая строка
func formatCalendarHolidays(days []holidays.Holiday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, fmt.Sprintf("%02d", d.Day))
	}
	return "\n\n🎉 Праздники по календарю: " + strings.Join(parts, ", ")
}

// describeError текст ошибки сохранения для пользователя
func describeError(err error) string {
	var conflict *service.ConflictError
	var transport *service.TransportError

	switch {
	case service.IsWarning(err):
		return "⚠️ " + err.Error()
	case errors.Is(err, service.ErrCommitInFlight):
		return "⏳ Ведомость уже сохраняется, подождите и повторите."
	case errors.As(err, &conflict):
		return "❌ Ведомость изменилась во время сохранения. Откройте ее заново (/discard, /roster)."
	case errors.As(err, &transport):
		return "❌ Ошибка связи с базой данных, изменения не сохранены. Повторите /save."
	default:
		return "❌ Ошибка сохранения: " + err.Error()
	}
}
