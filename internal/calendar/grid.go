// Package calendar computes renderable month-grid models for the event
// board's calendar views.
//
// Everything here is a pure function from values to values: no clocks, no
// store access, no shared state. The caller supplies "today", the selected
// date, and the grouped events; the package returns a Grid the display
// layer can walk cell by cell. That keeps the date math trivially testable
// — feed in any month of any year and check the shape of the output.
package calendar

import (
	"time"

	"github.com/saicojavc/When-Babe/internal/dates"
)

// YearMonth identifies a displayed month. The first of the month is the
// anchor for all navigation — day-of-month is never preserved across
// Prev/Next.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// YearMonthOf returns the month containing d.
func YearMonthOf(d dates.Date) YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}

// First returns the first day of the month.
func (ym YearMonth) First() dates.Date {
	return dates.Date{Year: ym.Year, Month: ym.Month, Day: 1}
}

// Days returns the number of days in the month, respecting actual month
// lengths including leap-year February.
//
// HOW: time.Date normalises out-of-range values, so day 0 of the NEXT
// month is the last day of this one. This is the standard library idiom
// for month lengths — no lookup table to keep in sync.
func (ym YearMonth) Days() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Prev returns the month exactly one calendar month earlier.
func (ym YearMonth) Prev() YearMonth {
	t := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Next returns the month exactly one calendar month later.
func (ym YearMonth) Next() YearMonth {
	t := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// DayCell is one selectable day in the grid.
type DayCell struct {
	Day        int        `json:"day"`
	Date       dates.Date `json:"-"`
	ISODate    string     `json:"date"`
	Selected   bool       `json:"selected,omitempty"`
	Today      bool       `json:"today,omitempty"`
	HasEvents  bool       `json:"hasEvents,omitempty"`
	EventCount int        `json:"eventCount,omitempty"`
}

// Grid is the renderable model for one displayed month: LeadingBlanks
// empty cells (the offset of day 1 within the week), then one cell per
// day of the month.
type Grid struct {
	Month         YearMonth `json:"month"`
	LeadingBlanks int       `json:"leadingBlanks"`
	Cells         []DayCell `json:"cells"`
}

// BuildGrid computes the grid model for one month.
//
// selected and today may be the zero Date when there is nothing to
// highlight (the aggregate calendar has no selection). eventsByDate is
// the output of GroupByDate and may be nil.
//
// weekStart is the first day of the displayed week (Sunday in the
// original layout, Monday for locales that prefer it). LeadingBlanks is
// the zero-based offset of day 1's weekday from weekStart, so it is
// always in [0,6] regardless of which weekday starts the week.
func BuildGrid(ym YearMonth, selected, today dates.Date, eventsByDate map[dates.Date][]EventOnDate, weekStart time.Weekday) Grid {
	first := ym.First()
	blanks := (int(first.Weekday()) - int(weekStart) + 7) % 7

	days := ym.Days()
	cells := make([]DayCell, 0, days)
	for day := 1; day <= days; day++ {
		date := dates.Date{Year: ym.Year, Month: ym.Month, Day: day}
		onDay := eventsByDate[date]
		cells = append(cells, DayCell{
			Day:        day,
			Date:       date,
			ISODate:    date.ISO(),
			Selected:   date == selected,
			Today:      date == today,
			HasEvents:  len(onDay) > 0,
			EventCount: len(onDay),
		})
	}

	return Grid{Month: ym, LeadingBlanks: blanks, Cells: cells}
}

// Select returns the date for day number n (1-based) in the displayed
// month: first-of-month plus n-1 days. Selection never changes which
// month is displayed — only current-month cells are selectable.
func (g Grid) Select(n int) dates.Date {
	return g.Month.First().AddDays(n - 1)
}

// WeekdayHeader returns the seven single-letter column labels starting
// from weekStart.
func WeekdayHeader(weekStart time.Weekday) [7]string {
	letters := [7]string{"S", "M", "T", "W", "T", "F", "S"} // Sunday..Saturday
	var out [7]string
	for i := 0; i < 7; i++ {
		out[i] = letters[(int(weekStart)+i)%7]
	}
	return out
}
