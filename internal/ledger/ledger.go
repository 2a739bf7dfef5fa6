package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rajvedanta/attendance/internal/model"
)

// Storage sentinels. Store and Directory implementations return these for
// the no-rows and duplicate-key cases so the state machine stays independent
// of the database driver.
var (
	ErrNoRecord  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Directory resolves badge tokens and ids to teachers. Read-only from the
// ledger's perspective.
type Directory interface {
	TeacherByRFID(ctx context.Context, rfid string) (model.Teacher, error)
	TeacherByID(ctx context.Context, id string) (model.Teacher, error)
}

// Store is the durable home of attendance records.
type Store interface {
	AttendanceOn(ctx context.Context, teacherID string, day time.Time) (model.AttendanceRecord, error)
	// CreateCheckIn inserts a fresh record; ErrDuplicate when a record for
	// the same (teacher, day) already exists.
	CreateCheckIn(ctx context.Context, rec model.AttendanceRecord) error
	// SetCheckOut stamps the check-out time only if none is set yet and
	// reports whether the update applied.
	SetCheckOut(ctx context.Context, recordID string, at time.Time) (bool, error)
	// ReviveCheckIn restamps a malformed record that carries neither
	// timestamp.
	ReviveCheckIn(ctx context.Context, recordID string, at time.Time) error
	ListByTeacher(ctx context.Context, teacherID string) ([]model.AttendanceRecord, error)
}

// Locker serializes the read-modify-write of one (teacher, day) key.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

type ScanKind string

const (
	ScanCheckIn  ScanKind = "checkIn"
	ScanCheckOut ScanKind = "checkOut"
)

// ScanResult is the outcome of a successful scan. Duration is the exact
// elapsed time and is only set on check-out; DurationMinutes floors it for
// display. Created distinguishes a fresh check-in record from the recovery
// re-stamp of a malformed one.
type ScanResult struct {
	Kind        ScanKind
	Time        time.Time
	CheckInTime time.Time
	Duration    time.Duration
	Created     bool
	Teacher     model.Teacher
}

func (r ScanResult) DurationMinutes() int64 {
	return int64(r.Duration / time.Minute)
}

type Service struct {
	dir        Directory
	store      Store
	locker     Locker
	minElapsed time.Duration
}

func NewService(dir Directory, store Store, locker Locker, minElapsed time.Duration) *Service {
	return &Service{dir: dir, store: store, locker: locker, minElapsed: minElapsed}
}

// RecordScan interprets one badge read as a check-in or check-out for the
// day containing now. The caller supplies now; the service never reads the
// wall clock. Failed validations perform zero writes.
func (s *Service) RecordScan(ctx context.Context, rfid string, now time.Time) (ScanResult, error) {
	rfid = strings.TrimSpace(rfid)
	if rfid == "" {
		return ScanResult{}, fmt.Errorf("%w: rfid is required", ErrValidation)
	}

	teacher, err := s.dir.TeacherByRFID(ctx, rfid)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return ScanResult{}, fmt.Errorf("%w: teacher", ErrNotFound)
		}
		return ScanResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if teacher.Status != model.TeacherActive {
		return ScanResult{}, ErrForbidden
	}

	day := model.Day(now)
	release, err := s.locker.Lock(ctx, scanKey(teacher.ID, day))
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return ScanResult{}, err
		}
		return ScanResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer release()

	return s.transition(ctx, teacher, day, now, true)
}

func (s *Service) transition(ctx context.Context, teacher model.Teacher, day, now time.Time, retryOnDuplicate bool) (ScanResult, error) {
	rec, err := s.store.AttendanceOn(ctx, teacher.ID, day)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			return ScanResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		checkIn := now
		rec := model.AttendanceRecord{
			ID:          uuid.NewString(),
			TeacherID:   teacher.ID,
			Date:        day,
			CheckInTime: &checkIn,
			Status:      model.StatusPresent,
			CreatedAt:   now,
		}
		if err := s.store.CreateCheckIn(ctx, rec); err != nil {
			if errors.Is(err, ErrDuplicate) && retryOnDuplicate {
				// Lost the create race to a concurrent scan; re-read and
				// run the transition against the record that won.
				return s.transition(ctx, teacher, day, now, false)
			}
			return ScanResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return ScanResult{Kind: ScanCheckIn, Time: now, Created: true, Teacher: teacher}, nil
	}

	switch {
	case rec.CheckInTime != nil && rec.CheckOutTime != nil:
		return ScanResult{}, ErrAlreadyComplete

	case rec.CheckInTime != nil:
		elapsed := now.Sub(*rec.CheckInTime)
		if elapsed < s.minElapsed {
			return ScanResult{}, &TooEarlyError{
				Elapsed:   elapsed,
				Remaining: minutesCeil(s.minElapsed - elapsed),
			}
		}
		applied, err := s.store.SetCheckOut(ctx, rec.ID, now)
		if err != nil {
			return ScanResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !applied {
			return ScanResult{}, ErrAlreadyComplete
		}
		return ScanResult{
			Kind:        ScanCheckOut,
			Time:        now,
			CheckInTime: *rec.CheckInTime,
			Duration:    elapsed,
			Teacher:     teacher,
		}, nil

	default:
		// A record without either timestamp is unreachable through the scan
		// path; restamp it as a check-in rather than wedging the day.
		if err := s.store.ReviveCheckIn(ctx, rec.ID, now); err != nil {
			return ScanResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return ScanResult{Kind: ScanCheckIn, Time: now, Created: false, Teacher: teacher}, nil
	}
}

func scanKey(teacherID string, day time.Time) string {
	return teacherID + ":" + day.Format("2006-01-02")
}

func minutesCeil(d time.Duration) int64 {
	return int64((d + time.Minute - 1) / time.Minute)
}
