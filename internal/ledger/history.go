package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"rajvedanta/attendance/internal/model"
)

// Entry is one attendance record annotated with its derived duration.
// DurationMinutes and Duration are nil while the record is still open.
type Entry struct {
	Record          model.AttendanceRecord
	DurationMinutes *int64
	Duration        *string
}

// History returns the teacher and their full attendance timeline, newest
// first (date, then check-in time). A teacher with no records yields an
// empty slice, not an error.
func (s *Service) History(ctx context.Context, teacherID string) (model.Teacher, []Entry, error) {
	if teacherID == "" {
		return model.Teacher{}, nil, fmt.Errorf("%w: teacher id is required", ErrValidation)
	}
	teacher, err := s.dir.TeacherByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return model.Teacher{}, nil, fmt.Errorf("%w: teacher", ErrNotFound)
		}
		return model.Teacher{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	records, err := s.store.ListByTeacher(ctx, teacherID)
	if err != nil {
		return model.Teacher{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, annotate(rec))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Record, entries[j].Record
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return checkInAfter(a.CheckInTime, b.CheckInTime)
	})
	return teacher, entries, nil
}

func annotate(rec model.AttendanceRecord) Entry {
	entry := Entry{Record: rec}
	if rec.CheckInTime == nil || rec.CheckOutTime == nil {
		return entry
	}
	elapsed := rec.CheckOutTime.Sub(*rec.CheckInTime)
	minutes := int64(elapsed / time.Minute)
	formatted := fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	entry.DurationMinutes = &minutes
	entry.Duration = &formatted
	return entry
}

func checkInAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// Reducers over a history. Stateless and order-independent; the admin
// summary endpoint composes them.

func CountByStatus(entries []Entry) map[model.Status]int {
	counts := make(map[model.Status]int)
	for _, e := range entries {
		counts[e.Record.Status]++
	}
	return counts
}

func TotalMinutes(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		if e.DurationMinutes != nil {
			total += *e.DurationMinutes
		}
	}
	return total
}

// AverageMinutes averages over completed records only; zero when none are
// complete.
func AverageMinutes(entries []Entry) float64 {
	var total int64
	var complete int
	for _, e := range entries {
		if e.DurationMinutes != nil {
			total += *e.DurationMinutes
			complete++
		}
	}
	if complete == 0 {
		return 0
	}
	return float64(total) / float64(complete)
}
