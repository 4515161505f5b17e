/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

HOURS:
  Hours are decimals. Responses encode them as JSON strings ("7.5");
  requests accept a number or a string.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timesheet/timesheet"
)

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSessionRequest logs a person in.
type CreateSessionRequest struct {
	Person string `json:"person"`
}

// SessionDTO represents a session in API responses.
type SessionDTO struct {
	ID            string `json:"id"`
	Person        string `json:"person"`
	ReferenceDate string `json:"reference_date"`
	CreatedAt     string `json:"created_at"`
}

// =============================================================================
// WEEK VIEW
// =============================================================================

// RowDTO is one editable row.
type RowDTO struct {
	Label    string          `json:"label"`
	Date     string          `json:"date"`
	Hours    decimal.Decimal `json:"hours"`
	Category string          `json:"category"`
}

// TotalsDTO sums hours by category.
type TotalsDTO struct {
	Normal decimal.Decimal `json:"normal"`
	OnCall decimal.Decimal `json:"on_call"`
}

// WeekViewDTO is the editable week with its header and totals.
type WeekViewDTO struct {
	Person     string    `json:"person"`
	WeekNumber int       `json:"week_number"`
	Title      string    `json:"title"`
	Monday     string    `json:"monday"`
	Sunday     string    `json:"sunday"`
	Rows       []RowDTO  `json:"rows"`
	Totals     TotalsDTO `json:"totals"`
}

// SaveWeekRequest carries edited rows. Rows left out count as zero hours.
type SaveWeekRequest struct {
	Rows []SaveRowRequest `json:"rows"`
}

// SaveRowRequest is one edited row. Category defaults to Normal.
type SaveRowRequest struct {
	Date     string           `json:"date"`
	Category string           `json:"category,omitempty"`
	Hours    *decimal.Decimal `json:"hours"`
}

// =============================================================================
// ADMIN
// =============================================================================

// EntryDTO is one raw record.
type EntryDTO struct {
	Date     string          `json:"date"`
	Person   string          `json:"person"`
	Hours    decimal.Decimal `json:"hours"`
	Category string          `json:"category"`
}

// OverwriteRequest replaces the whole store.
type OverwriteRequest struct {
	Entries []EntryDTO `json:"entries"`
}

// ImportResultDTO reports what an import wrote.
type ImportResultDTO struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toSessionDTO(s timesheet.Session) SessionDTO {
	return SessionDTO{
		ID:            s.ID,
		Person:        s.Person,
		ReferenceDate: s.ReferenceDate.String(),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

func toWeekViewDTO(v timesheet.WeekView) WeekViewDTO {
	rows := make([]RowDTO, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = RowDTO{
			Label:    r.Label,
			Date:     r.Date.String(),
			Hours:    r.Hours,
			Category: r.Category.String(),
		}
	}
	totals := v.Totals()
	return WeekViewDTO{
		Person:     v.Person,
		WeekNumber: v.Week.Number(),
		Title:      v.Week.Title(),
		Monday:     v.Week.Monday.String(),
		Sunday:     v.Week.Sunday().String(),
		Rows:       rows,
		Totals:     TotalsDTO{Normal: totals.Normal, OnCall: totals.OnCall},
	}
}

func toEntryDTOs(entries timesheet.Entries) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = EntryDTO{
			Date:     e.Date.String(),
			Person:   e.Person,
			Hours:    e.Hours,
			Category: e.Category.String(),
		}
	}
	return dtos
}
