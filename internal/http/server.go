package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rajvedanta/attendance/internal/auth"
	"rajvedanta/attendance/internal/config"
	"rajvedanta/attendance/internal/crypto"
	"rajvedanta/attendance/internal/display"
	"rajvedanta/attendance/internal/ledger"
	"rajvedanta/attendance/internal/model"
)

// Store covers the admin/principal queries the handlers need beyond the
// ledger. *repository.Store satisfies it.
type Store interface {
	TeacherByID(ctx context.Context, id string) (model.Teacher, error)
	ListTeachers(ctx context.Context) ([]model.Teacher, error)
	CreateTeacher(ctx context.Context, teacher model.Teacher) error
	UpdateTeacher(ctx context.Context, teacher model.Teacher) error
	UpdateTeacherStatus(ctx context.Context, teacherID string, status model.TeacherStatus, at time.Time) error
	AdminByEmail(ctx context.Context, email string) (model.Admin, error)
	AdminByID(ctx context.Context, id string) (model.Admin, error)
}

type Server struct {
	cfg      config.Config
	ledger   *ledger.Service
	store    Store
	validate *validator.Validate
	now      func() time.Time
}

func NewServer(cfg config.Config, svc *ledger.Service, store Store) *Server {
	return &Server{
		cfg:      cfg,
		ledger:   svc,
		store:    store,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/attendence/mark/{rfid}", s.handleMarkAttendance)
	r.Get("/attendence/view/{teacherId}", s.handleViewAttendance)
	r.Get("/attendence/summary/{teacherId}", s.handleAttendanceSummary)
	r.Get("/attendence/allNames", s.handleAllNames)

	r.Post("/auth/login", s.handleAdminLogin)
	r.With(s.protect).Post("/auth/logout", s.handleAdminLogout)

	r.Route("/principal", func(r chi.Router) {
		r.Use(s.protect)
		r.Get("/allTeachers", s.handleAllTeachers)
		r.Post("/addTeacher", s.handleAddTeacher)
		r.Put("/updateTeacher/{teacherId}", s.handleUpdateTeacher)
		r.Patch("/updateStatus/{teacherId}", s.handleUpdateTeacherStatus)
	})

	return r
}

// Attendance

type scanUser struct {
	Fullname string `json:"fullname"`
	RFID     string `json:"rfid"`
}

type scanData struct {
	Type        ledger.ScanKind `json:"type"`
	Time        time.Time       `json:"time"`
	CheckInTime *time.Time      `json:"checkInTime,omitempty"`
	Duration    string          `json:"duration,omitempty"`
	User        scanUser        `json:"user"`
}

type scanResponse struct {
	Message string           `json:"message"`
	Data    scanData         `json:"data"`
	LCD     *display.Payload `json:"lcd,omitempty"`
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	rfid := chi.URLParam(r, "rfid")
	wantLCD := r.URL.Query().Get("lcd") == "1"

	result, err := s.ledger.RecordScan(r.Context(), rfid, s.now())
	if err != nil {
		status, message := s.scanErrorStatus(err)
		body := map[string]any{"message": message}
		if wantLCD {
			body["lcd"] = display.ForError(err)
		}
		writeJSON(w, status, body)
		return
	}

	resp := scanResponse{
		Data: scanData{
			Type: result.Kind,
			Time: result.Time,
			User: scanUser{Fullname: result.Teacher.Fullname, RFID: result.Teacher.RFID},
		},
	}
	httpStatus := http.StatusOK
	switch result.Kind {
	case ledger.ScanCheckOut:
		resp.Message = "Check-out marked successfully"
		checkIn := result.CheckInTime
		resp.Data.CheckInTime = &checkIn
		resp.Data.Duration = fmt.Sprintf("%d minutes", result.DurationMinutes())
	default:
		resp.Message = "Check-in marked successfully"
		if result.Created {
			httpStatus = http.StatusCreated
		}
	}
	if wantLCD {
		lcd := display.ForScan(result)
		resp.LCD = &lcd
	}
	writeJSON(w, httpStatus, resp)
}

type attendanceRecordResponse struct {
	ID                string       `json:"_id"`
	Date              time.Time    `json:"date"`
	Status            model.Status `json:"status"`
	CheckInTime       *time.Time   `json:"checkInTime"`
	CheckOutTime      *time.Time   `json:"checkOutTime"`
	Duration          *string      `json:"duration"`
	DurationInMinutes *int64       `json:"durationInMinutes"`
	CreatedAt         time.Time    `json:"createdAt"`
}

type teacherDetail struct {
	ID       string `json:"_id"`
	Fullname string `json:"fullname"`
	RFID     string `json:"rfid"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type viewResponse struct {
	Message      string                     `json:"message"`
	Teacher      teacherDetail              `json:"teacher"`
	TotalRecords int                        `json:"totalRecords"`
	Attendance   []attendanceRecordResponse `json:"attendance"`
}

func (s *Server) handleViewAttendance(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "teacherId")

	teacher, entries, err := s.ledger.History(r.Context(), teacherID)
	if err != nil {
		writeLedgerError(w, err, "Teacher not found")
		return
	}

	records := make([]attendanceRecordResponse, 0, len(entries))
	for _, entry := range entries {
		records = append(records, attendanceRecordResponse{
			ID:                entry.Record.ID,
			Date:              entry.Record.Date,
			Status:            entry.Record.Status,
			CheckInTime:       entry.Record.CheckInTime,
			CheckOutTime:      entry.Record.CheckOutTime,
			Duration:          entry.Duration,
			DurationInMinutes: entry.DurationMinutes,
			CreatedAt:         entry.Record.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, viewResponse{
		Message: "Attendance records fetched successfully",
		Teacher: teacherDetail{
			ID:       teacher.ID,
			Fullname: teacher.Fullname,
			RFID:     teacher.RFID,
			Email:    teacher.Email,
			Phone:    teacher.Phone,
		},
		TotalRecords: len(records),
		Attendance:   records,
	})
}

type summaryResponse struct {
	Teacher        teacherName          `json:"teacher"`
	TotalRecords   int                  `json:"totalRecords"`
	ByStatus       map[model.Status]int `json:"byStatus"`
	TotalMinutes   int64                `json:"totalMinutes"`
	AverageMinutes float64              `json:"averageMinutes"`
}

func (s *Server) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "teacherId")

	teacher, entries, err := s.ledger.History(r.Context(), teacherID)
	if err != nil {
		writeLedgerError(w, err, "Teacher not found")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Teacher:        teacherName{ID: teacher.ID, Fullname: teacher.Fullname, RFID: teacher.RFID},
		TotalRecords:   len(entries),
		ByStatus:       ledger.CountByStatus(entries),
		TotalMinutes:   ledger.TotalMinutes(entries),
		AverageMinutes: ledger.AverageMinutes(entries),
	})
}

type teacherName struct {
	ID       string `json:"_id"`
	Fullname string `json:"fullname"`
	RFID     string `json:"rfid"`
}

func (s *Server) handleAllNames(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.store.ListTeachers(r.Context())
	if err != nil {
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	names := make([]teacherName, 0, len(teachers))
	for _, teacher := range teachers {
		names = append(names, teacherName{ID: teacher.ID, Fullname: teacher.Fullname, RFID: teacher.RFID})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": names})
}

// Admin auth

const sessionCookie = "secret"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	admin, err := s.store.AdminByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ledger.ErrNoRecord) {
			writeMessage(w, http.StatusNotFound, "Admin not found")
			return
		}
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}

	if err := crypto.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, admin.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.AccessTokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Admin Login Successfull",
		"data": map[string]string{
			"id":       admin.ID,
			"fullName": admin.Fullname,
			"email":    admin.Email,
			"phone":    admin.Phone,
		},
	})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged Out Successfully"})
}

type adminKey struct{}

// protect authenticates the principal dashboard: session cookie or bearer
// token, resolved to a live admin row.
func (s *Server) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		admin, err := s.store.AdminByID(r.Context(), claims.AdminID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		ctx := context.WithValue(r.Context(), adminKey{}, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return bearerToken(r.Header.Get("Authorization"))
}

// Principal (teacher management)

type teacherResponse struct {
	ID        string              `json:"_id"`
	RFID      string              `json:"rfid"`
	Fullname  string              `json:"fullname"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone"`
	Status    model.TeacherStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func mapTeacher(teacher model.Teacher) teacherResponse {
	return teacherResponse{
		ID:        teacher.ID,
		RFID:      teacher.RFID,
		Fullname:  teacher.Fullname,
		Email:     teacher.Email,
		Phone:     teacher.Phone,
		Status:    teacher.Status,
		CreatedAt: teacher.CreatedAt,
		UpdatedAt: teacher.UpdatedAt,
	}
}

func (s *Server) handleAllTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.store.ListTeachers(r.Context())
	if err != nil {
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	resp := make([]teacherResponse, 0, len(teachers))
	for _, teacher := range teachers {
		resp = append(resp, mapTeacher(teacher))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": resp})
}

type addTeacherRequest struct {
	RFID     string `json:"rfid" validate:"required"`
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
}

func (s *Server) handleAddTeacher(w http.ResponseWriter, r *http.Request) {
	var req addTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	now := s.now()
	teacher := model.Teacher{
		ID:        uuid.NewString(),
		RFID:      strings.TrimSpace(req.RFID),
		Fullname:  strings.TrimSpace(req.Fullname),
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Status:    model.TeacherActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTeacher(r.Context(), teacher); err != nil {
		var conflict *ledger.ConflictError
		if errors.As(err, &conflict) {
			writeMessage(w, http.StatusConflict, fmt.Sprintf("Teacher with this %s already exists", conflict.Field))
			return
		}
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Teacher added successfully",
		"data":    mapTeacher(teacher),
	})
}

type updateTeacherRequest struct {
	RFID     *string `json:"rfid"`
	Fullname *string `json:"fullname"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Status   *string `json:"status"`
}

func (s *Server) handleUpdateTeacher(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "teacherId")

	teacher, err := s.store.TeacherByID(r.Context(), teacherID)
	if err != nil {
		if errors.Is(err, ledger.ErrNoRecord) {
			writeMessage(w, http.StatusNotFound, "Teacher not found")
			return
		}
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}

	var req updateTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RFID != nil && *req.RFID != "" {
		teacher.RFID = strings.TrimSpace(*req.RFID)
	}
	if req.Fullname != nil && *req.Fullname != "" {
		teacher.Fullname = strings.TrimSpace(*req.Fullname)
	}
	if req.Email != nil && *req.Email != "" {
		teacher.Email = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.Phone != nil && *req.Phone != "" {
		teacher.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Status != nil && *req.Status != "" {
		status := model.TeacherStatus(*req.Status)
		if !status.Valid() {
			writeMessage(w, http.StatusBadRequest, "Invalid status")
			return
		}
		teacher.Status = status
	}
	teacher.UpdatedAt = s.now()

	if err := s.store.UpdateTeacher(r.Context(), teacher); err != nil {
		var conflict *ledger.ConflictError
		if errors.As(err, &conflict) {
			writeMessage(w, http.StatusConflict, fmt.Sprintf("Teacher with this %s already exists", conflict.Field))
			return
		}
		if errors.Is(err, ledger.ErrNoRecord) {
			writeMessage(w, http.StatusNotFound, "Teacher not found")
			return
		}
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Teacher updated successfully",
		"data":    mapTeacher(teacher),
	})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) handleUpdateTeacherStatus(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "teacherId")

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}
	status := model.TeacherStatus(req.Status)
	if !status.Valid() {
		writeMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}

	if err := s.store.UpdateTeacherStatus(r.Context(), teacherID, status, s.now()); err != nil {
		if errors.Is(err, ledger.ErrNoRecord) {
			writeMessage(w, http.StatusNotFound, "Teacher not found")
			return
		}
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}

	teacher, err := s.store.TeacherByID(r.Context(), teacherID)
	if err != nil {
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Teacher status updated successfully",
		"data":    mapTeacher(teacher),
	})
}

// Error mapping

func (s *Server) scanErrorStatus(err error) (int, string) {
	var tooEarly *ledger.TooEarlyError
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest, "RFID is required"
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden, "User is not active"
	case errors.As(err, &tooEarly):
		return http.StatusBadRequest, fmt.Sprintf(
			"Check-out not allowed. Minimum %d minutes required between check-in and check-out. Current difference: %d minutes",
			int64(s.cfg.CheckoutMinElapsed/time.Minute),
			int64(tooEarly.Elapsed/time.Minute))
	case errors.Is(err, ledger.ErrAlreadyComplete):
		return http.StatusBadRequest, "Attendance already marked for today"
	case errors.Is(err, ledger.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service unavailable"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func writeLedgerError(w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		writeMessage(w, http.StatusBadRequest, "Teacher ID is required")
	case errors.Is(err, ledger.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, ledger.ErrUnavailable):
		writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// Helpers

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
