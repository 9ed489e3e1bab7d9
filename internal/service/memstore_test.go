package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"coaching-attendance/internal/models"
	"coaching-attendance/internal/repository"

	"github.com/google/uuid"
)

var errTransport = errors.New("connection reset by peer")

// memStore хранилище в памяти с внедрением ошибок
type memStore struct {
	mu       sync.Mutex
	students map[uint]*models.Student
	records  map[uuid.UUID]models.AttendanceRecord

	failInsert     error
	failUpdate     error
	failPercentage error
	failQuery      error

	inserts int
	updates int
}

func newMemStore() *memStore {
	return &memStore{
		students: make(map[uint]*models.Student),
		records:  make(map[uuid.UUID]models.AttendanceRecord),
	}
}

func (s *memStore) addClass(classID string, n int) []models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Student, 0, n)
	for i := 1; i <= n; i++ {
		id := uint(len(s.students) + 1)
		st := &models.Student{ID: id, Name: fmt.Sprintf("Student %d", id), ClassID: classID, RollNumber: i}
		s.students[id] = st
		out = append(out, *st)
	}
	return out
}

func (s *memStore) student(id uint) models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.students[id]
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) QueryRoster(ctx context.Context, classID string) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failQuery != nil {
		return nil, s.failQuery
	}
	out := []models.Student{}
	for _, st := range s.students {
		if st.ClassID == classID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (s *memStore) QueryAttendance(ctx context.Context, f models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failQuery != nil {
		return nil, s.failQuery
	}
	out := []models.AttendanceRecord{}
	for _, rec := range s.records {
		if f.ClassID != "" {
			st, ok := s.students[rec.StudentID]
			if !ok || st.ClassID != f.ClassID {
				continue
			}
		}
		if f.StudentID != 0 && rec.StudentID != f.StudentID {
			continue
		}
		if !f.From.IsZero() && rec.Date.Before(models.Day(f.From)) {
			continue
		}
		if !f.To.IsZero() && rec.Date.After(models.Day(f.To)) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (s *memStore) InsertAttendance(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failInsert != nil {
		return nil, s.failInsert
	}
	for _, rec := range records {
		for _, existing := range s.records {
			if existing.StudentID == rec.StudentID && models.SameDay(existing.Date, rec.Date) {
				return nil, fmt.Errorf("UNIQUE constraint failed: student %d", rec.StudentID)
			}
		}
	}

	out := make([]models.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		rec.ID = uuid.New()
		rec.Date = models.Day(rec.Date)
		s.records[rec.ID] = rec
		s.inserts++
		out = append(out, rec)
	}
	return out, nil
}

func (s *memStore) UpdateAttendanceStatus(ctx context.Context, id uuid.UUID, status models.AttendanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpdate != nil {
		return s.failUpdate
	}
	rec, ok := s.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	s.records[id] = rec
	s.updates++
	return nil
}

func (s *memStore) UpdateStudentPercentage(ctx context.Context, studentID uint, percentage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failPercentage != nil {
		return s.failPercentage
	}
	st, ok := s.students[studentID]
	if !ok {
		return repository.ErrNotFound
	}
	st.AttendancePercentage = percentage
	return nil
}

// GetAll реализует StudentLister
func (s *memStore) GetAll(ctx context.Context) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
