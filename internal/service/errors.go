package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Warning локальная проблема, из-за которой сохранение прерывается до записи
type Warning struct {
	msg string
}

func (w *Warning) Error() string {
	return w.msg
}

var (
	ErrNothingToMark = &Warning{msg: "нет учеников для отметки"}
	ErrEmptyRoster   = &Warning{msg: "в классе нет учеников"}

	ErrCommitInFlight  = errors.New("сохранение этой ведомости уже выполняется")
	ErrStudentNotFound = errors.New("ученик не найден")
)

// IsWarning проверяет, является ли ошибка предупреждением
func IsWarning(err error) bool {
	var w *Warning
	return errors.As(err, &w)
}

// ConflictError запись или ученик удалены, пока шло сохранение
type ConflictError struct {
	RecordID  uuid.UUID
	StudentID uint
	Err       error
}

func (e *ConflictError) Error() string {
	if e.RecordID != uuid.Nil {
		return fmt.Sprintf("конфликт: запись %s (ученик %d) не найдена: %v", e.RecordID, e.StudentID, e.Err)
	}
	return fmt.Sprintf("конфликт: ученик %d не найден: %v", e.StudentID, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// TransportError любая другая ошибка хранилища
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CommitError сохранение ведомости не удалось, оптимистичное состояние откачено
type CommitError struct {
	Key DayKey
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("сохранение %s за %s не удалось: %v", e.Key.ClassID, e.Key.Date, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
