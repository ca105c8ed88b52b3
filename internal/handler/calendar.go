package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/saicojavc/When-Babe/internal/calendar"
	"github.com/saicojavc/When-Babe/internal/service"
)

// CalendarHandler serves the aggregate month view: every device's
// events folded into one grid.
type CalendarHandler struct {
	svc    *service.EventService
	logger *slog.Logger
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(svc *service.EventService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{svc: svc, logger: logger}
}

// calendarResponse wraps the grid with the column header so a client
// renders the month without knowing the server's week-start setting.
type calendarResponse struct {
	calendar.Grid
	Weekdays [7]string `json:"weekdays"`
}

// HandleMonth returns the grid for one month.
//
// HTTP: GET /api/calendar/{year}/{month}
//
// month is 1-12. Years outside a sane range are rejected rather than
// clamped — a client asking for year 99999 has a bug, not a need.
func (h *CalendarHandler) HandleMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1900 || year > 2200 {
		http.Error(w, "Year must be between 1900 and 2200", http.StatusBadRequest)
		return
	}

	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "Month must be between 1 and 12", http.StatusBadRequest)
		return
	}

	grid := h.svc.Calendar(calendar.YearMonth{Year: year, Month: time.Month(month)})

	writeJSON(w, http.StatusOK, calendarResponse{
		Grid:     grid,
		Weekdays: calendar.WeekdayHeader(h.svc.WeekStart()),
	})
}
