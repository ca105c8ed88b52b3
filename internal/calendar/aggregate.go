package calendar

import (
	"github.com/saicojavc/When-Babe/internal/dates"
	"github.com/saicojavc/When-Babe/internal/model"
)

// EventOnDate is one record placed on the calendar, paired with its
// parsed date so consumers don't re-parse.
type EventOnDate struct {
	Record model.EventRecord
	Date   dates.Date
}

// GroupByDate buckets a snapshot of event records by their parsed
// calendar date for the aggregate month view.
//
// Records whose stored date fails to parse are discarded here — they stay
// visible in the flat list (annotated as invalid), but a day cell cannot
// be computed for them. Within a date, records keep their snapshot order.
func GroupByDate(records []model.EventRecord) map[dates.Date][]EventOnDate {
	out := make(map[dates.Date][]EventOnDate)
	for _, rec := range records {
		d, ok := dates.ParseISO(rec.Date)
		if !ok {
			continue
		}
		out[d] = append(out[d], EventOnDate{Record: rec, Date: d})
	}
	return out
}
