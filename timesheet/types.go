/*
Package timesheet provides the weekly timesheet reconciliation core.

PURPOSE:
  Workers record hours per day plus an on-call slot per week. All records
  live in one flat collection of entries. This package maps that flat
  collection to an editable week for one person, and maps an edited week
  back to a full replacement collection.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: Normal hours or on-call ("Astreinte") hours
  - Entry: One persisted (date, person, hours, category) record
  - Entries: A loaded snapshot of the whole collection

INVARIANT:
  At most one Entry per (Date, Person, Category). The reconciler keeps it;
  the admin raw overwrite path does not enforce it.

SEE ALSO:
  - week.go: Week boundaries and WeekView rows
  - reconciler.go: BuildWeekView and CommitWeek
  - store.go: Persistence interfaces
*/
package timesheet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY
// =============================================================================

// Category distinguishes regular hours from on-call hours.
// Values are the persisted spellings.
type Category string

const (
	CategoryNormal Category = "Normal"
	CategoryOnCall Category = "Astreinte"
)

// ParseCategory maps a persisted or user supplied value to a Category.
// Empty input is a record written before categories existed and maps to Normal.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return CategoryNormal, nil
	case "astreinte", "oncall", "on-call", "on_call":
		return CategoryOnCall, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

func (c Category) String() string { return string(c) }

// =============================================================================
// HOURS
// =============================================================================

// MaxHours bounds a single cell. A week has 168 hours, which also covers
// on-call hours recorded against the week's Sunday.
var MaxHours = decimal.NewFromInt(168)

// ParseHours parses a decimal hours value. A comma decimal separator is accepted.
// Blank input is zero hours.
func ParseHours(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidHours, s)
	}
	return d, nil
}

// ValidateHours checks a user supplied value is within [0, MaxHours].
func ValidateHours(date Date, category Category, hours decimal.Decimal) error {
	if hours.IsNegative() || hours.GreaterThan(MaxHours) {
		return &InvalidHoursError{Date: date, Category: category, Hours: hours}
	}
	return nil
}

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one persisted record.
type Entry struct {
	Date     Date
	Person   string
	Hours    decimal.Decimal
	Category Category
}

// Key identifies the slot an entry occupies.
type Key struct {
	Date     string
	Person   string
	Category Category
}

func (e Entry) Key() Key {
	return Key{Date: e.Date.String(), Person: e.Person, Category: e.Category}
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s %s %s", e.Date, e.Person, e.Hours, e.Category)
}

// Entries is a snapshot of the whole collection in store order.
type Entries []Entry

// Query returns the first entry matching all three fields.
// With duplicates (possible after admin edits) store order decides.
func (es Entries) Query(date Date, person string, category Category) (Entry, bool) {
	for _, e := range es {
		if e.Person == person && e.Category == category && e.Date.Equal(date) {
			return e, true
		}
	}
	return Entry{}, false
}

// Duplicates returns every key held by more than one entry, in first-seen order.
func (es Entries) Duplicates() []Key {
	seen := make(map[Key]int, len(es))
	var dups []Key
	for _, e := range es {
		k := e.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// Clone returns a copy that can be modified without touching es.
func (es Entries) Clone() Entries {
	if es == nil {
		return nil
	}
	out := make(Entries, len(es))
	copy(out, es)
	return out
}
