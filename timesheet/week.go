package timesheet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WEEK - Monday..Sunday boundaries
// =============================================================================

// OnCallLabel labels the on-call row of a WeekView.
const OnCallLabel = "ON-CALL"

// Week is the Monday-to-Sunday span containing a reference date.
type Week struct {
	Monday Date
}

// WeekOf returns the week containing ref: Monday = ref - weekday index.
func WeekOf(ref Date) Week {
	return Week{Monday: ref.AddDays(-ref.WeekdayIndex())}
}

func (w Week) Sunday() Date { return w.Monday.AddDays(6) }

// Days returns Monday..Sunday.
func (w Week) Days() []Date {
	days := make([]Date, 7)
	for i := range days {
		days[i] = w.Monday.AddDays(i)
	}
	return days
}

// ScopeDates returns the dates a commit for this week replaces:
// the seven days plus the on-call date (the Sunday again).
func (w Week) ScopeDates() []Date {
	return append(w.Days(), w.Sunday())
}

// Contains reports whether d falls within Monday..Sunday.
func (w Week) Contains(d Date) bool {
	return !d.Before(w.Monday) && !d.After(w.Sunday())
}

// Number returns the ISO week number.
func (w Week) Number() int {
	_, n := w.Monday.Time.ISOWeek()
	return n
}

func (w Week) Next() Week     { return Week{Monday: w.Monday.AddDays(7)} }
func (w Week) Previous() Week { return Week{Monday: w.Monday.AddDays(-7)} }

// Title renders the header shown above a week, e.g. "Week 42 (13/10 - 19/10)".
func (w Week) Title() string {
	return fmt.Sprintf("Week %d (%s - %s)", w.Number(),
		w.Monday.Time.Format("02/01"), w.Sunday().Time.Format("02/01"))
}

// =============================================================================
// WEEK VIEW - Transient editable projection
// =============================================================================

// Row is one editable line of a WeekView.
type Row struct {
	Label    string
	Date     Date
	Hours    decimal.Decimal
	Category Category
}

// WeekView holds seven Normal day rows followed by one on-call row dated Sunday.
type WeekView struct {
	Person string
	Week   Week
	Rows   []Row
}

// Totals sums hours per category over a view's rows.
type Totals struct {
	Normal decimal.Decimal
	OnCall decimal.Decimal
}

// Totals is for display only.
func (v WeekView) Totals() Totals {
	return TotalsOf(v.Rows)
}

// TotalsOf sums rows grouped by category.
func TotalsOf(rows []Row) Totals {
	t := Totals{Normal: decimal.Zero, OnCall: decimal.Zero}
	for _, r := range rows {
		switch r.Category {
		case CategoryNormal:
			t.Normal = t.Normal.Add(r.Hours)
		case CategoryOnCall:
			t.OnCall = t.OnCall.Add(r.Hours)
		}
	}
	return t
}

func dayLabel(d Date) string {
	return d.Weekday().String()
}

var weekdayLabels = [7]string{
	time.Monday.String(), time.Tuesday.String(), time.Wednesday.String(),
	time.Thursday.String(), time.Friday.String(), time.Saturday.String(), time.Sunday.String(),
}

// Labels returns the row labels of a WeekView in order.
func Labels() []string {
	return append(weekdayLabels[:], OnCallLabel)
}
