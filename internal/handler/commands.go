package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	switch command {
	case "start", "help":
		h.send(message.Chat.ID, helpText)
	case "classes":
		h.showClasses(ctx, message)
	case "class":
		h.selectClass(message, args)
	case "date":
		h.selectDate(message, args)
	case "roster":
		h.showRoster(ctx, message, args)
	case "mark":
		h.mark(ctx, message, args)
	case "markall":
		h.markAll(ctx, message, args)
	case "save":
		h.save(ctx, message.Chat.ID)
	case "discard":
		h.discard(message)
	case "calendar":
		h.showCalendar(ctx, message, args)
	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.send(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

const helpText = `📚 Учет посещаемости

/classes - список классов
/class <класс> - выбрать класс
/date <ГГГГ-ММ-ДД|сегодня|вчера> - выбрать дату
/roster [поиск] - ведомость класса на выбранную дату
/mark <номер> <статус> [<номер> <статус> ...] - отметить учеников
/markall <статус> - отметить весь класс
/save - сохранить ведомость
/discard - отменить несохраненные изменения
/calendar [ГГГГ ММ] - календарь посещаемости за месяц

Статусы: p (присутствует), a (отсутствует), l (отпуск), h (праздник)`

func (h *Handler) showClasses(ctx context.Context, message *tgbotapi.Message) {
	classes, err := h.attendance.Classes(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get classes")
		h.send(message.Chat.ID, "❌ Ошибка получения списка классов: "+err.Error())
		return
	}
	if len(classes) == 0 {
		h.send(message.Chat.ID, "📭 Классов пока нет.")
		return
	}
	h.send(message.Chat.ID, "🏫 Классы: "+strings.Join(classes, ", "))
}

func (h *Handler) selectClass(message *tgbotapi.Message, args string) {
	if args == "" {
		h.send(message.Chat.ID, "❌ Укажите класс: /class 10")
		return
	}

	s := h.session(message.Chat.ID)
	if s.dirty {
		h.send(message.Chat.ID, "⚠️ Есть несохраненные изменения. Сохраните их (/save) или отмените (/discard).")
		return
	}
	s.classID = args
	s.draft = nil

	h.send(message.Chat.ID, fmt.Sprintf("✅ Выбран класс %s, дата %s", s.classID, s.day(time.Now()).Format("02.01.2006")))
}

func (h *Handler) selectDate(message *tgbotapi.Message, args string) {
	now := time.Now()
	date, err := parseDate(args, now)
	if err != nil {
		h.send(message.Chat.ID, "❌ "+err.Error())
		return
	}

	s := h.session(message.Chat.ID)
	if s.dirty {
		h.send(message.Chat.ID, "⚠️ Есть несохраненные изменения. Сохраните их (/save) или отмените (/discard).")
		return
	}
	if followsToday(args) {
		s.date = time.Time{}
	} else {
		s.date = date
	}
	s.draft = nil

	h.send(message.Chat.ID, "📅 Выбрана дата "+date.Format("02.01.2006"))
}

// loadDraft возвращает черновик сессии, при необходимости загружая ведомость
func (h *Handler) loadDraft(ctx context.Context, chatID int64, search string) (*session, bool) {
	s := h.session(chatID)
	if s.classID == "" {
		h.send(chatID, "❌ Сначала выберите класс: /class <класс>")
		return s, false
	}
	now := time.Now()
	if s.currentDraft(now) != nil && search == "" {
		return s, true
	}

	model, err := h.attendance.LoadDay(ctx, s.classID, s.day(now), search)
	if err != nil {
		logrus.WithError(err).Error("Failed to load day attendance")
		h.send(chatID, "❌ Ошибка загрузки ведомости: "+err.Error())
		return s, false
	}
	if search != "" {
		// отфильтрованная ведомость только для просмотра
		h.sendRoster(chatID, model, false)
		return s, false
	}

	s.draft = &model
	s.dirty = false
	return s, true
}

func (h *Handler) showRoster(ctx context.Context, message *tgbotapi.Message, args string) {
	s, ok := h.loadDraft(ctx, message.Chat.ID, args)
	if !ok {
		return
	}
	h.sendRoster(message.Chat.ID, *s.draft, s.dirty)
}

func (h *Handler) sendRoster(chatID int64, model attendance.DayModel, dirty bool) {
	msg := tgbotapi.NewMessage(chatID, formatRoster(model, dirty, h.calendarHoliday(model.Date)))
	if model.Len() > 0 && model.Len() <= maxKeyboardRows {
		msg.ReplyMarkup = rosterKeyboard(model)
	}
	if _, err := h.client.Bot.Send(msg); err != nil {
		logrus.WithError(err).Error("Failed to send roster")
	}
}

func (h *Handler) mark(ctx context.Context, message *tgbotapi.Message, args string) {
	marks, err := parseMarks(args)
	if err != nil {
		h.send(message.Chat.ID, "❌ "+err.Error()+"\nПример: /mark 1 p 2 a 3 l")
		return
	}

	s, ok := h.loadDraft(ctx, message.Chat.ID, "")
	if !ok {
		return
	}

	next, unknown := applyMarks(*s.draft, marks)
	s.draft = &next
	s.dirty = true

	if len(unknown) > 0 {
		h.send(message.Chat.ID, fmt.Sprintf("⚠️ Нет учеников с номерами: %v", unknown))
	}
	h.sendRoster(message.Chat.ID, next, s.dirty)
}

func (h *Handler) markAll(ctx context.Context, message *tgbotapi.Message, args string) {
	status, ok := models.ParseStatus(args)
	if !ok {
		h.send(message.Chat.ID, "❌ Укажите статус: /markall p")
		return
	}

	s, ok := h.loadDraft(ctx, message.Chat.ID, "")
	if !ok {
		return
	}

	next := attendance.BulkSetStatus(*s.draft, status)
	s.draft = &next
	s.dirty = true

	h.sendRoster(message.Chat.ID, next, s.dirty)
}

func (h *Handler) save(ctx context.Context, chatID int64) {
	s := h.session(chatID)
	if s.draft == nil {
		h.send(chatID, "❌ Нечего сохранять. Откройте ведомость командой /roster")
		return
	}

	result, err := h.attendance.Commit(ctx, *s.draft)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("Failed to save attendance")
		h.send(chatID, describeError(err))
		// черновик остается, сохранение можно повторить
		return
	}

	s.dirty = false
	h.send(chatID, formatCommit(*s.draft, result))
}

func (h *Handler) discard(message *tgbotapi.Message) {
	s := h.session(message.Chat.ID)
	s.draft = nil
	s.dirty = false
	h.send(message.Chat.ID, "🗑 Несохраненные изменения отменены.")
}

func (h *Handler) showCalendar(ctx context.Context, message *tgbotapi.Message, args string) {
	s := h.session(message.Chat.ID)
	if s.classID == "" {
		h.send(message.Chat.ID, "❌ Сначала выберите класс: /class <класс>")
		return
	}

	selected := s.day(time.Now())
	year, month := selected.Year(), selected.Month()
	if args != "" {
		var err error
		year, month, err = parseYearMonth(args)
		if err != nil {
			h.send(message.Chat.ID, "❌ "+err.Error()+"\nПример: /calendar 2024 01")
			return
		}
	}

	days, err := h.attendance.LoadMonth(ctx, s.classID, year, month, selected)
	if err != nil {
		logrus.WithError(err).Error("Failed to load month attendance")
		h.send(message.Chat.ID, "❌ Ошибка загрузки календаря: "+err.Error())
		return
	}

	text := formatCalendar(s.classID, year, month, days)
	if h.holidays != nil {
		text += formatCalendarHolidays(h.holidays.ForMonth(year, month))
	}
	h.send(message.Chat.ID, text)
}
