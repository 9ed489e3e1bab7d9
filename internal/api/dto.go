package api

import (
	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/models"
)

type EntryRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent leave holiday"`
}

// CommitDayRequest статусы учеников, которые меняются в ведомости
type CommitDayRequest struct {
	Entries []EntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type MarkAllRequest struct {
	Status string `json:"status" validate:"required,oneof=present absent leave holiday"`
}

type CreateStudentRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	ClassID    string `json:"class_id" validate:"required,max=64"`
	RollNumber int    `json:"roll_number" validate:"gte=1"`
}

type DayResponse struct {
	ClassID string                `json:"class_id"`
	Date    string                `json:"date"`
	State   string                `json:"state"`
	Entries []attendance.DayEntry `json:"entries"`
	Stats   attendance.DayStats   `json:"stats"`
}

func newDayResponse(model attendance.DayModel, state string) DayResponse {
	return DayResponse{
		ClassID: model.ClassID,
		Date:    model.Date.Format(dateLayout),
		State:   state,
		Entries: model.Entries,
		Stats:   model.Stats(),
	}
}

type CommitResponse struct {
	DayResponse
	CommitID    string       `json:"commit_id"`
	Inserted    int          `json:"inserted"`
	Updated     int          `json:"updated"`
	Percentages map[uint]int `json:"percentages"`
}

type StudentHistoryResponse struct {
	Student *models.Student           `json:"student"`
	History []models.AttendanceRecord `json:"history"`
}
