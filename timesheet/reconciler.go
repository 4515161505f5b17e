/*
reconciler.go - Mapping between the flat entry collection and one person's week

PURPOSE:
  BuildWeekView projects entries onto an eight-row editable week.
  CommitWeek turns the edited rows back into a full replacement collection.

COMMIT ALGORITHM (strip then rebuild):
  1. Keep every entry NOT (date in week scope AND person == person),
     whatever its category.
  2. Append one entry per row with hours > 0.
  3. Rows with zero, negative or missing hours are not re-inserted:
     zero hours and no record are the same thing on disk.

  The strip ignores categories so that no stale entry for the week
  survives, even if a row changed category between load and save.

PROPERTIES:
  - BuildWeekView is pure: same entries, same view
  - Committing the same rows twice leaves the same collection
  - Entries of other people, and of this person outside the week, are
    kept in their original order

Hour bounds are the caller's job (see ValidateHours). The reconciler only
drops non-positive values.
*/
package timesheet

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PURE FUNCTIONS
// =============================================================================

// BuildWeekView returns the week containing ref for person.
// Missing slots show zero hours.
func BuildWeekView(entries Entries, person string, ref Date) WeekView {
	week := WeekOf(ref)
	rows := make([]Row, 0, 8)
	for _, day := range week.Days() {
		rows = append(rows, Row{
			Label:    dayLabel(day),
			Date:     day,
			Hours:    hoursAt(entries, day, person, CategoryNormal),
			Category: CategoryNormal,
		})
	}

	sunday := week.Sunday()
	rows = append(rows, Row{
		Label:    OnCallLabel,
		Date:     sunday,
		Hours:    hoursAt(entries, sunday, person, CategoryOnCall),
		Category: CategoryOnCall,
	})

	return WeekView{Person: person, Week: week, Rows: rows}
}

func hoursAt(entries Entries, date Date, person string, category Category) decimal.Decimal {
	if e, ok := entries.Query(date, person, category); ok {
		return e.Hours
	}
	return decimal.Zero
}

// CommitWeek returns the full collection that replaces entries after person
// saved rows for the week scoped by weekDates. entries is not modified.
func CommitWeek(entries Entries, person string, weekDates []Date, rows []Row) Entries {
	inScope := make(map[string]bool, len(weekDates))
	for _, d := range weekDates {
		inScope[d.String()] = true
	}

	retained := make(Entries, 0, len(entries)+len(rows))
	for _, e := range entries {
		if e.Person == person && inScope[e.Date.String()] {
			continue
		}
		retained = append(retained, e)
	}

	// A slot edited twice keeps its first position and its last value.
	base := len(retained)
	slot := make(map[Key]int, len(rows))
	for _, r := range rows {
		category := r.Category
		if category == "" {
			category = CategoryNormal
		}
		e := Entry{Date: r.Date, Person: person, Hours: r.Hours, Category: category}
		if i, ok := slot[e.Key()]; ok {
			retained[i] = e
			continue
		}
		slot[e.Key()] = len(retained)
		retained = append(retained, e)
	}

	out := retained[:base]
	for _, e := range retained[base:] {
		if e.Hours.IsPositive() {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// RECONCILER - Store-backed wrapper
// =============================================================================

// Reconciler reads and writes weeks through a Store.
type Reconciler struct {
	store  Store
	logger *log.Logger
}

// NewReconciler creates a reconciler over store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, logger: log.Default()}
}

// WithLogger replaces the logger used for save notices.
func (r *Reconciler) WithLogger(l *log.Logger) *Reconciler {
	r.logger = l
	return r
}

// Week loads the store and builds the view for the session's current week.
func (r *Reconciler) Week(ctx context.Context, person string, ref Date) (WeekView, error) {
	if person == "" {
		return WeekView{}, ErrEmptyPerson
	}
	entries, err := r.store.Load(ctx)
	if err != nil {
		return WeekView{}, fmt.Errorf("failed to load entries: %w", err)
	}
	return BuildWeekView(entries, person, ref), nil
}

// Commit saves rows for person's week and returns the refreshed view.
// Rows dated outside the week are ignored.
func (r *Reconciler) Commit(ctx context.Context, person string, week Week, rows []Row) (WeekView, error) {
	if person == "" {
		return WeekView{}, ErrEmptyPerson
	}

	entries, err := r.store.Load(ctx)
	if err != nil {
		return WeekView{}, fmt.Errorf("failed to load entries: %w", err)
	}

	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !week.Contains(row.Date) {
			r.logger.Printf("timesheet: ignoring row dated %s outside week of %s for %s", row.Date, week.Monday, person)
			continue
		}
		if row.Category == CategoryOnCall && !row.Date.Equal(week.Sunday()) {
			row.Date = week.Sunday()
		}
		kept = append(kept, row)
	}

	next := CommitWeek(entries, person, week.ScopeDates(), kept)
	if err := r.store.Save(ctx, next); err != nil {
		return WeekView{}, fmt.Errorf("failed to save entries: %w", err)
	}
	r.logger.Printf("timesheet: saved week %s for %s (%d entries in store)", week.Monday, person, len(next))

	return BuildWeekView(next, person, week.Monday), nil
}
