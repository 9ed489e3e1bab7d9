package handler

import (
	"context"
	"strings"
	"sync"
	"time"

	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/config"
	"coaching-attendance/internal/models"
	"coaching-attendance/internal/service"
	"coaching-attendance/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// session черновик ведомости одного чата. Нулевая date означает
// "сегодня" на момент каждой команды.
type session struct {
	classID string
	date    time.Time
	draft   *attendance.DayModel
	dirty   bool
}

// day выбранная дата или текущий день
func (s *session) day(now time.Time) time.Time {
	if s.date.IsZero() {
		return models.Day(now)
	}
	return s.date
}

// currentDraft черновик выбранного дня. Несохраненный черновик другого дня
// остается, чтобы не потерять правки; сохраненный сбрасывается.
func (s *session) currentDraft(now time.Time) *attendance.DayModel {
	if s.draft != nil && !s.dirty && !models.SameDay(s.draft.Date, s.day(now)) {
		s.draft = nil
	}
	return s.draft
}

type Handler struct {
	client     *telegram.Client
	attendance *service.AttendanceService
	holidays   *service.HolidayService
	config     *config.AppConfig

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewHandler(
	client *telegram.Client,
	attendanceService *service.AttendanceService,
	holidayService *service.HolidayService,
	cfg *config.AppConfig,
) *Handler {
	return &Handler{
		client:     client,
		attendance: attendanceService,
		holidays:   holidayService,
		config:     cfg,
		sessions:   make(map[int64]*session),
	}
}

func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			// Обработка callback query (для inline кнопок)
			if update.CallbackQuery != nil {
				h.handleCallbackQuery(ctx, update.CallbackQuery)
				continue
			}

			if update.Message == nil {
				continue
			}

			h.handleMessage(ctx, update.Message)
		}
	}
}

// handleCallbackQuery обрабатывает кнопки отметки под списком класса
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	defer h.client.Bot.Request(tgbotapi.NewCallback(callback.ID, ""))

	if !h.allowed(chatID) {
		return
	}

	switch {
	case strings.HasPrefix(callback.Data, callbackMark):
		studentID, status, err := parseMarkCallback(callback.Data)
		if err != nil {
			logrus.WithError(err).WithField("data", callback.Data).Warn("Bad mark callback")
			return
		}

		s := h.session(chatID)
		if s.draft == nil {
			h.send(chatID, "❌ Сначала откройте ведомость командой /roster")
			return
		}
		next := attendance.SetStatus(*s.draft, studentID, status)
		s.draft = &next
		s.dirty = true

		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID,
			formatRoster(next, s.dirty, h.calendarHoliday(next.Date)), rosterKeyboard(next))
		if _, err := h.client.Bot.Send(edit); err != nil {
			logrus.WithError(err).Warn("Failed to refresh roster message")
		}

	case callback.Data == callbackSave:
		h.save(ctx, chatID)
	}
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	logrus.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user":    message.From.UserName,
	}).Info(message.Text)

	chatID := message.Chat.ID

	if !h.allowed(chatID) {
		h.send(chatID, "❌ Доступ запрещен. Бот работает только в чате преподавателей.")
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.send(chatID, "Используйте /help для списка команд.")
}

// allowed ограничивает бота чатом администратора, если он задан
func (h *Handler) allowed(chatID int64) bool {
	return h.config.AdminChatID == 0 || h.config.AdminChatID == chatID
}

func (h *Handler) session(chatID int64) *session {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[chatID]
	if !ok {
		s = &session{}
		h.sessions[chatID] = s
	}
	return s
}

// calendarHoliday праздник ли дата по загруженному календарю
func (h *Handler) calendarHoliday(date time.Time) bool {
	return h.holidays != nil && h.holidays.IsHoliday(date)
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.client.Bot.Send(msg); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}
