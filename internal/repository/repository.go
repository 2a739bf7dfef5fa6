package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rajvedanta/attendance/internal/ledger"
	"rajvedanta/attendance/internal/model"
)

// Store is the pgx-backed persistence layer. It implements ledger.Directory
// and ledger.Store and carries the admin/teacher management queries.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Directory

func (s *Store) TeacherByRFID(ctx context.Context, rfid string) (model.Teacher, error) {
	return s.teacherBy(ctx, `rfid = $1`, rfid)
}

func (s *Store) TeacherByID(ctx context.Context, id string) (model.Teacher, error) {
	return s.teacherBy(ctx, `id = $1`, id)
}

func (s *Store) teacherBy(ctx context.Context, clause, arg string) (model.Teacher, error) {
	var teacher model.Teacher
	row := s.pool.QueryRow(ctx, `
		SELECT id, rfid, fullname, email, phone, status, created_at, updated_at
		FROM teachers
		WHERE `+clause, arg)
	err := row.Scan(
		&teacher.ID,
		&teacher.RFID,
		&teacher.Fullname,
		&teacher.Email,
		&teacher.Phone,
		&teacher.Status,
		&teacher.CreatedAt,
		&teacher.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Teacher{}, ledger.ErrNoRecord
	}
	return teacher, err
}

// Attendance store

func (s *Store) AttendanceOn(ctx context.Context, teacherID string, day time.Time) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	row := s.pool.QueryRow(ctx, `
		SELECT id, teacher_id, record_date, check_in_time, check_out_time, status, created_at
		FROM attendance_records
		WHERE teacher_id = $1 AND record_date = $2
	`, teacherID, day)
	err := scanRecord(row, &rec)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AttendanceRecord{}, ledger.ErrNoRecord
	}
	return rec, err
}

func (s *Store) CreateCheckIn(ctx context.Context, rec model.AttendanceRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_records (id, teacher_id, record_date, check_in_time, check_out_time, status, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6)
	`, rec.ID, rec.TeacherID, rec.Date, rec.CheckInTime, rec.Status, rec.CreatedAt)
	if isUniqueViolation(err) {
		return ledger.ErrDuplicate
	}
	return err
}

func (s *Store) SetCheckOut(ctx context.Context, recordID string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE attendance_records
		SET check_out_time = $1
		WHERE id = $2 AND check_out_time IS NULL
	`, at, recordID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ReviveCheckIn(ctx context.Context, recordID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE attendance_records
		SET check_in_time = $1, status = $2
		WHERE id = $3 AND check_in_time IS NULL
	`, at, model.StatusPresent, recordID)
	return err
}

func (s *Store) ListByTeacher(ctx context.Context, teacherID string) ([]model.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, teacher_id, record_date, check_in_time, check_out_time, status, created_at
		FROM attendance_records
		WHERE teacher_id = $1
		ORDER BY record_date DESC, check_in_time DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := scanRecord(rows, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Teacher management (principal surface)

func (s *Store) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, rfid, fullname, email, phone, status, created_at, updated_at
		FROM teachers
		ORDER BY fullname
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teachers []model.Teacher
	for rows.Next() {
		var teacher model.Teacher
		err := rows.Scan(
			&teacher.ID,
			&teacher.RFID,
			&teacher.Fullname,
			&teacher.Email,
			&teacher.Phone,
			&teacher.Status,
			&teacher.CreatedAt,
			&teacher.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}
	return teachers, rows.Err()
}

func (s *Store) CreateTeacher(ctx context.Context, teacher model.Teacher) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teachers (id, rfid, fullname, email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, teacher.ID, teacher.RFID, teacher.Fullname, teacher.Email, teacher.Phone, teacher.Status, teacher.CreatedAt)
	if isUniqueViolation(err) {
		return &ledger.ConflictError{Field: violatedField(err)}
	}
	return err
}

func (s *Store) UpdateTeacher(ctx context.Context, teacher model.Teacher) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE teachers
		SET rfid = $1, fullname = $2, email = $3, phone = $4, status = $5, updated_at = $6
		WHERE id = $7
	`, teacher.RFID, teacher.Fullname, teacher.Email, teacher.Phone, teacher.Status, teacher.UpdatedAt, teacher.ID)
	if isUniqueViolation(err) {
		return &ledger.ConflictError{Field: violatedField(err)}
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNoRecord
	}
	return nil
}

func (s *Store) UpdateTeacherStatus(ctx context.Context, teacherID string, status model.TeacherStatus, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE teachers
		SET status = $1, updated_at = $2
		WHERE id = $3
	`, status, at, teacherID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNoRecord
	}
	return nil
}

// Admins

func (s *Store) AdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
		SELECT id, fullname, email, phone, password_hash, created_at
		FROM admins
		WHERE email = $1
	`, email)
	err := row.Scan(&admin.ID, &admin.Fullname, &admin.Email, &admin.Phone, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Admin{}, ledger.ErrNoRecord
	}
	return admin, err
}

func (s *Store) AdminByID(ctx context.Context, id string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
		SELECT id, fullname, email, phone, password_hash, created_at
		FROM admins
		WHERE id = $1
	`, id)
	err := row.Scan(&admin.ID, &admin.Fullname, &admin.Email, &admin.Phone, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Admin{}, ledger.ErrNoRecord
	}
	return admin, err
}

func (s *Store) UpsertAdmin(ctx context.Context, admin model.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (id, fullname, email, phone, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET fullname = EXCLUDED.fullname, phone = EXCLUDED.phone, password_hash = EXCLUDED.password_hash
	`, admin.ID, admin.Fullname, admin.Email, admin.Phone, admin.PasswordHash, admin.CreatedAt)
	return err
}

// Helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, rec *model.AttendanceRecord) error {
	return row.Scan(
		&rec.ID,
		&rec.TeacherID,
		&rec.Date,
		&rec.CheckInTime,
		&rec.CheckOutTime,
		&rec.Status,
		&rec.CreatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func violatedField(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.Contains(pgErr.ConstraintName, "rfid") {
			return "rfid"
		}
		if strings.Contains(pgErr.ConstraintName, "email") {
			return "email"
		}
		if pgErr.ConstraintName != "" {
			return pgErr.ConstraintName
		}
	}
	return "key"
}
