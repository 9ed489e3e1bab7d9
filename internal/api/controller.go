package api

import (
	"strconv"
	"strings"
	"time"

	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/models"
	"coaching-attendance/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type AttendanceController struct {
	svc      *service.AttendanceService
	validate *validator.Validate
}

func NewAttendanceController(svc *service.AttendanceService) *AttendanceController {
	return &AttendanceController{
		svc:      svc,
		validate: validator.New(),
	}
}

// GET /api/classes
func (ctrl *AttendanceController) ListClasses(c *fiber.Ctx) error {
	classes, err := ctrl.svc.Classes(c.UserContext())
	if err != nil {
		return err
	}
	return Success(c, "classes", classes)
}

// GET /api/classes/:classId/attendance/:date?search=
func (ctrl *AttendanceController) GetDay(c *fiber.Ctx) error {
	classID, date, err := dayParams(c)
	if err != nil {
		return err
	}

	model, err := ctrl.svc.LoadDay(c.UserContext(), classID, date, strings.TrimSpace(c.Query("search")))
	if err != nil {
		return err
	}

	return Success(c, "day attendance", newDayResponse(model, ctrl.svc.State(classID, date).String()))
}

// PUT /api/classes/:classId/attendance/:date
func (ctrl *AttendanceController) CommitDay(c *fiber.Ctx) error {
	classID, date, err := dayParams(c)
	if err != nil {
		return err
	}

	var req CommitDayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctrl.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	ctx := c.UserContext()
	model, err := ctrl.svc.LoadDay(ctx, classID, date, "")
	if err != nil {
		return err
	}

	var unknown []uint
	for _, e := range req.Entries {
		if _, ok := model.Entry(e.StudentID); !ok {
			unknown = append(unknown, e.StudentID)
			continue
		}
		model = attendance.SetStatus(model, e.StudentID, models.AttendanceStatus(e.Status))
	}
	if len(unknown) > 0 {
		return ErrorWithDetails(c, fiber.StatusUnprocessableEntity, "students are not in this class", unknown)
	}

	result, err := ctrl.svc.Commit(ctx, model)
	if err != nil {
		return err
	}

	return Success(c, "attendance saved", newCommitResponse(model, result))
}

// POST /api/classes/:classId/attendance/:date/mark-all
func (ctrl *AttendanceController) MarkAll(c *fiber.Ctx) error {
	classID, date, err := dayParams(c)
	if err != nil {
		return err
	}

	var req MarkAllRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctrl.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	model, result, err := ctrl.svc.MarkAll(c.UserContext(), classID, date, models.AttendanceStatus(req.Status))
	if err != nil {
		return err
	}

	return Success(c, "attendance saved", newCommitResponse(model, result))
}

// GET /api/classes/:classId/calendar/:year/:month?selected=YYYY-MM-DD
func (ctrl *AttendanceController) GetCalendar(c *fiber.Ctx) error {
	year, err := c.ParamsInt("year")
	if err != nil || year < 2000 || year > 2100 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid year")
	}
	month, err := c.ParamsInt("month")
	if err != nil || month < 1 || month > 12 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid month")
	}

	var selected time.Time
	if s := c.Query("selected"); s != "" {
		selected, err = time.Parse(dateLayout, s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid selected date, expected YYYY-MM-DD")
		}
	}

	days, err := ctrl.svc.LoadMonth(c.UserContext(), c.Params("classId"), year, time.Month(month), selected)
	if err != nil {
		return err
	}

	return Success(c, "calendar", days)
}

// POST /api/students
func (ctrl *AttendanceController) CreateStudent(c *fiber.Ctx) error {
	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctrl.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	student, err := ctrl.svc.AddStudent(c.UserContext(), strings.TrimSpace(req.Name), req.ClassID, req.RollNumber)
	if err != nil {
		return err
	}

	return SuccessWithCode(c, fiber.StatusCreated, "student created", student)
}

// GET /api/students/:id/attendance
func (ctrl *AttendanceController) GetStudentAttendance(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid student id")
	}

	student, history, err := ctrl.svc.StudentHistory(c.UserContext(), uint(id))
	if err != nil {
		return err
	}

	return Success(c, "student attendance", StudentHistoryResponse{Student: student, History: history})
}

func dayParams(c *fiber.Ctx) (string, time.Time, error) {
	classID := strings.TrimSpace(c.Params("classId"))
	if classID == "" {
		return "", time.Time{}, fiber.NewError(fiber.StatusBadRequest, "class id is required")
	}

	date, err := time.Parse(dateLayout, c.Params("date"))
	if err != nil {
		return "", time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	return classID, models.Day(date), nil
}

func newCommitResponse(model attendance.DayModel, result *service.CommitResult) CommitResponse {
	return CommitResponse{
		DayResponse: newDayResponse(model, service.StateIdle.String()),
		CommitID:    result.CommitID.String(),
		Inserted:    len(result.Plan.Inserts),
		Updated:     len(result.Plan.Updates),
		Percentages: result.Percentages,
	}
}
