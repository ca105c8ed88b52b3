package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saicojavc/When-Babe/internal/handler"
	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/projection"
	"github.com/saicojavc/When-Babe/internal/service"
)

func TestCalendarHandler_HandleMonth(t *testing.T) {
	newMonthReq := func(year, month string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/"+year+"/"+month, nil)
		req.SetPathValue("year", year)
		req.SetPathValue("month", month)
		return req
	}

	t.Run("valid month", func(t *testing.T) {
		st := NewMockStore(
			model.EventRecord{OwnerID: "a", EventID: "e1", Name: "One", Date: "2024-05-03"},
			model.EventRecord{OwnerID: "b", EventID: "e2", Name: "Two", Date: "2024-05-03"},
		)
		h := handler.NewCalendarHandler(newTestService(t, st), testLogger())

		rr := httptest.NewRecorder()
		h.HandleMonth(rr, newMonthReq("2024", "5"))

		assert.Equal(t, http.StatusOK, rr.Code)

		var got struct {
			LeadingBlanks int `json:"leadingBlanks"`
			Cells         []struct {
				Day        int  `json:"day"`
				HasEvents  bool `json:"hasEvents"`
				EventCount int  `json:"eventCount"`
			} `json:"cells"`
			Weekdays [7]string `json:"weekdays"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))

		// May 2024 starts on a Wednesday: three blanks before day 1 in a
		// Sunday-start grid, then 31 day cells.
		assert.Equal(t, 3, got.LeadingBlanks)
		assert.Len(t, got.Cells, 31)
		assert.Equal(t, [7]string{"S", "M", "T", "W", "T", "F", "S"}, got.Weekdays)

		day3 := got.Cells[2]
		assert.Equal(t, 3, day3.Day)
		assert.True(t, day3.HasEvents)
		assert.Equal(t, 2, day3.EventCount)
	})

	t.Run("month out of range", func(t *testing.T) {
		h := handler.NewCalendarHandler(newTestService(t, NewMockStore()), testLogger())

		for _, month := range []string{"0", "13", "abc", ""} {
			rr := httptest.NewRecorder()
			h.HandleMonth(rr, newMonthReq("2024", month))
			assert.Equal(t, http.StatusBadRequest, rr.Code, "month=%q", month)
		}
	})

	t.Run("year out of range", func(t *testing.T) {
		h := handler.NewCalendarHandler(newTestService(t, NewMockStore()), testLogger())

		for _, year := range []string{"1899", "99999", "20x4"} {
			rr := httptest.NewRecorder()
			h.HandleMonth(rr, newMonthReq(year, "5"))
			assert.Equal(t, http.StatusBadRequest, rr.Code, "year=%q", year)
		}
	})

	t.Run("monday week start shifts blanks", func(t *testing.T) {
		st := NewMockStore()
		logger := testLogger()
		list := projection.New(context.Background(), st, logger)
		t.Cleanup(func() { list.Close() })
		svc := service.NewEventService(st, list, adminDeviceID, time.Monday, logger)

		h := handler.NewCalendarHandler(svc, logger)

		rr := httptest.NewRecorder()
		h.HandleMonth(rr, newMonthReq("2024", "5"))

		assert.Equal(t, http.StatusOK, rr.Code)

		var got struct {
			LeadingBlanks int       `json:"leadingBlanks"`
			Weekdays      [7]string `json:"weekdays"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		// Wednesday the 1st sits two cells in when the week starts Monday.
		assert.Equal(t, 2, got.LeadingBlanks)
		assert.Equal(t, [7]string{"M", "T", "W", "T", "F", "S", "S"}, got.Weekdays)
	})
}
