package api

import (
	"coaching-attendance/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NewApp собирает fiber приложение с маршрутами посещаемости
func NewApp(ctrl *AttendanceController) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "coaching-attendance",
		ErrorHandler: ErrorHandler,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return Success(c, "ok", nil)
	})

	AttendanceRoutes(app.Group("/api"), ctrl)

	return app
}

func AttendanceRoutes(r fiber.Router, ctrl *AttendanceController) {
	classes := r.Group("/classes")
	classes.Get("/", ctrl.ListClasses)
	classes.Get("/:classId/attendance/:date", ctrl.GetDay)
	classes.Put("/:classId/attendance/:date", ctrl.CommitDay)
	classes.Post("/:classId/attendance/:date/mark-all", ctrl.MarkAll)
	classes.Get("/:classId/calendar/:year/:month", ctrl.GetCalendar)

	students := r.Group("/students")
	students.Post("/", ctrl.CreateStudent)
	students.Get("/:id/attendance", ctrl.GetStudentAttendance)
}

// ErrorHandler переводит ошибки сервиса в HTTP статусы
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("Request failed")
	}
	return Error(c, code, message)
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	var conflict *service.ConflictError
	var transport *service.TransportError

	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case service.IsWarning(err):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrCommitInFlight):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, service.ErrStudentNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.As(err, &conflict):
		return fiber.StatusConflict, err.Error()
	case errors.As(err, &transport):
		return fiber.StatusBadGateway, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
