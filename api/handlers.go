/*
handlers.go - HTTP API handlers for the timesheet

ENDPOINTS:
  People:
    GET    /api/people                        Configured roster

  Sessions:
    POST   /api/sessions                      Log in {person}
    GET    /api/sessions/{id}                 Session details
    DELETE /api/sessions/{id}                 Log out

  Week:
    GET    /api/sessions/{id}/week            Current week view + totals
    PUT    /api/sessions/{id}/week            Save edited rows, returns refreshed view
    POST   /api/sessions/{id}/week/next       Move forward 7 days
    POST   /api/sessions/{id}/week/previous   Move back 7 days
    POST   /api/sessions/{id}/week/today      Back to the current week

  Admin (X-Admin-Secret header):
    POST   /api/admin/unlock                  Check the secret
    GET    /api/admin/entries                 Whole store
    PUT    /api/admin/entries                 Raw overwrite
    GET    /api/admin/export?format=csv|xlsx  Download
    POST   /api/admin/import                  Multipart "file" (.csv, .xlsx, .xls), raw overwrite

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (bad date, hours out of [0, 168], unknown category)
  - 401: Admin secret rejected
  - 404: Unknown session or person
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/timesheet/sheet"
	"github.com/warp/timesheet/timesheet"
)

// AdminSecretHeader carries the admin passphrase.
const AdminSecretHeader = "X-Admin-Secret"

// maxImportSize bounds uploaded files.
const maxImportSize = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Reconciler *timesheet.Reconciler
	Admin      *timesheet.Admin
	Sessions   *Sessions
	People     []string

	// Now is the clock used for "today". Tests replace it.
	Now func() time.Time
}

// NewHandler creates a handler over store with the given admin gate and roster.
func NewHandler(store timesheet.RawStore, auth timesheet.Authorizer, people []string) *Handler {
	return &Handler{
		Reconciler: timesheet.NewReconciler(store),
		Admin:      timesheet.NewAdmin(store, auth),
		Sessions:   NewSessions(),
		People:     people,
		Now:        time.Now,
	}
}

func (h *Handler) today() timesheet.Date {
	return timesheet.DateOf(h.Now())
}

func (h *Handler) knows(person string) bool {
	for _, p := range h.People {
		if p == person {
			return true
		}
	}
	return false
}

// =============================================================================
// PEOPLE & SESSIONS
// =============================================================================

// ListPeople returns the roster.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people := h.People
	if people == nil {
		people = []string{}
	}
	writeJSON(w, http.StatusOK, people)
}

// CreateSession logs a person in on the current week.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Person == "" {
		writeError(w, http.StatusBadRequest, "Person is required", timesheet.ErrEmptyPerson)
		return
	}
	if !h.knows(req.Person) {
		writeError(w, http.StatusNotFound, "Unknown person", fmt.Errorf("%w: %q", timesheet.ErrUnknownPerson, req.Person))
		return
	}

	sess, err := h.Sessions.Start(req.Person, h.today())
	if err != nil {
		writeDomainError(w, "Failed to start session", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(sess))
}

// GetSession returns a session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Session not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

// DeleteSession logs out.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.End(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Session not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WEEK
// =============================================================================

// GetWeek returns the session's current week.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Session not found", err)
		return
	}
	h.writeWeek(w, r, sess)
}

// NextWeek moves the session forward one week.
func (h *Handler) NextWeek(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(s *timesheet.Session) { s.NextWeek() })
}

// PreviousWeek moves the session back one week.
func (h *Handler) PreviousWeek(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(s *timesheet.Session) { s.PreviousWeek() })
}

// CurrentWeek moves the session back to today.
func (h *Handler) CurrentWeek(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	h.navigate(w, r, func(s *timesheet.Session) { s.Reset(today) })
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, move func(*timesheet.Session)) {
	sess, err := h.Sessions.Update(chi.URLParam(r, "id"), move)
	if err != nil {
		writeDomainError(w, "Session not found", err)
		return
	}
	h.writeWeek(w, r, sess)
}

func (h *Handler) writeWeek(w http.ResponseWriter, r *http.Request, sess timesheet.Session) {
	view, err := h.Reconciler.Week(r.Context(), sess.Person, sess.ReferenceDate)
	if err != nil {
		writeDomainError(w, "Failed to load week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekViewDTO(view))
}

// SaveWeek validates the edited rows and commits them for the session's week.
func (h *Handler) SaveWeek(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Session not found", err)
		return
	}

	var req SaveWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	week := sess.Week()
	rows := make([]timesheet.Row, 0, len(req.Rows))
	for _, rr := range req.Rows {
		row, err := toRow(rr)
		if err != nil {
			writeDomainError(w, "Invalid row", err)
			return
		}
		if !week.Contains(row.Date) {
			writeError(w, http.StatusBadRequest, "Row outside the current week",
				fmt.Errorf("%s is not in %s..%s", row.Date, week.Monday, week.Sunday()))
			return
		}
		rows = append(rows, row)
	}

	view, err := h.Reconciler.Commit(r.Context(), sess.Person, week, rows)
	if err != nil {
		writeDomainError(w, "Failed to save week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekViewDTO(view))
}

func toRow(rr SaveRowRequest) (timesheet.Row, error) {
	date, err := timesheet.ParseDate(rr.Date)
	if err != nil {
		return timesheet.Row{}, fmt.Errorf("%w: %v", errBadInput, err)
	}
	category, err := timesheet.ParseCategory(rr.Category)
	if err != nil {
		return timesheet.Row{}, err
	}
	hours := decimal.Zero
	if rr.Hours != nil {
		hours = *rr.Hours
	}
	if err := timesheet.ValidateHours(date, category, hours); err != nil {
		return timesheet.Row{}, err
	}
	return timesheet.Row{Date: date, Category: category, Hours: hours}, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// UnlockAdmin checks the secret. The admin gate middleware did the work.
func (h *Handler) UnlockAdmin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListEntries returns the whole store.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Admin.Entries(r.Context(), r.Header.Get(AdminSecretHeader))
	if err != nil {
		writeDomainError(w, "Failed to load entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// OverwriteEntries replaces the store with the posted snapshot, unchecked.
func (h *Handler) OverwriteEntries(w http.ResponseWriter, r *http.Request) {
	var req OverwriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entries := make(timesheet.Entries, 0, len(req.Entries))
	for i, dto := range req.Entries {
		date, err := timesheet.ParseDate(dto.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date in entry %d", i), err)
			return
		}
		category, err := timesheet.ParseCategory(dto.Category)
		if err != nil {
			writeDomainError(w, fmt.Sprintf("Invalid category in entry %d", i), err)
			return
		}
		entries = append(entries, timesheet.Entry{
			Date:     date,
			Person:   dto.Person,
			Hours:    dto.Hours,
			Category: category,
		})
	}

	if err := h.Admin.Overwrite(r.Context(), r.Header.Get(AdminSecretHeader), entries); err != nil {
		writeDomainError(w, "Failed to overwrite entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// ExportEntries downloads the store as CSV or XLSX.
func (h *Handler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	format, err := sheet.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDomainError(w, "Invalid format", err)
		return
	}

	entries, err := h.Admin.Entries(r.Context(), r.Header.Get(AdminSecretHeader))
	if err != nil {
		writeDomainError(w, "Failed to load entries", err)
		return
	}

	var buf bytes.Buffer
	if err := sheet.Export(&buf, format, entries); err != nil {
		writeDomainError(w, "Failed to export entries", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ImportEntries replaces the store with an uploaded sheet.
func (h *Handler) ImportEntries(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required", err)
		return
	}
	defer file.Close()

	decoded, err := sheet.ReadWorkbook(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file", err)
		return
	}

	if err := h.Admin.Overwrite(r.Context(), r.Header.Get(AdminSecretHeader), decoded.Entries); err != nil {
		writeDomainError(w, "Failed to import entries", err)
		return
	}

	result := ImportResultDTO{Imported: len(decoded.Entries)}
	for _, s := range decoded.Skipped {
		result.Skipped = append(result.Skipped, s.Error())
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// HELPERS
// =============================================================================

var errBadInput = errors.New("bad input")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error kind.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, timesheet.ErrUnauthorized):
		return http.StatusUnauthorized
	case timesheet.IsNotFound(err):
		return http.StatusNotFound
	case timesheet.IsClientError(err), errors.Is(err, errBadInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
