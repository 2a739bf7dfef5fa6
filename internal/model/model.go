package model

import "time"

// Status is the semantic label on an attendance record. The scan path only
// ever writes StatusPresent; the remaining values are reserved for manual
// entry by an administrator.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusLeave   Status = "leave"
	StatusHalfDay Status = "half-day"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusLeave, StatusHalfDay:
		return true
	}
	return false
}

// TeacherStatus is the lifecycle state of a teacher. Only active teachers may
// produce attendance events.
type TeacherStatus string

const (
	TeacherActive    TeacherStatus = "active"
	TeacherInactive  TeacherStatus = "inactive"
	TeacherSuspended TeacherStatus = "suspended"
)

func (s TeacherStatus) Valid() bool {
	switch s {
	case TeacherActive, TeacherInactive, TeacherSuspended:
		return true
	}
	return false
}

type Teacher struct {
	ID        string
	RFID      string
	Fullname  string
	Email     string
	Phone     string
	Status    TeacherStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Admin struct {
	ID           string
	Fullname     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// AttendanceRecord is the one-per-teacher-per-day ledger entry. Date is the
// calendar day truncated to UTC midnight; CheckOutTime is nil while the
// teacher is still checked in.
type AttendanceRecord struct {
	ID           string
	TeacherID    string
	Date         time.Time
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Status       Status
	CreatedAt    time.Time
}

// Day truncates an instant to its UTC calendar day. All record lookups and
// uniqueness checks use this normalization.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
