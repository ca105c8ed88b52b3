package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/saicojavc/When-Babe/internal/apperror"
	"github.com/saicojavc/When-Babe/internal/calendar"
	"github.com/saicojavc/When-Babe/internal/dates"
	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/projection"
	"github.com/saicojavc/When-Babe/internal/store"
)

const testAdminID = "0be2f871-aa42-4258-81b4-383dd7bf1860"

// mockStore is a hand-written fake: simple enough that a mocking library
// would be more code than this.
type mockStore struct {
	*store.Notifier

	records    []model.EventRecord
	registered map[string]time.Time

	pushed  []store.EventFields
	set     map[string]store.EventFields
	removed []string

	err error // returned by every mutation when non-nil
}

func newMockStore(records ...model.EventRecord) *mockStore {
	return &mockStore{
		Notifier:   store.NewNotifier(),
		records:    records,
		registered: make(map[string]time.Time),
		set:        make(map[string]store.EventFields),
	}
}

func (m *mockStore) ListAll(ctx context.Context) ([]model.EventRecord, error) {
	return m.records, nil
}

func (m *mockStore) RegisterOwner(ctx context.Context, ownerID string, registeredAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.registered[ownerID]; !ok {
		m.registered[ownerID] = registeredAt
	}
	return nil
}

func (m *mockStore) Owner(ctx context.Context, ownerID string) (model.Device, error) {
	at, ok := m.registered[ownerID]
	if !ok {
		return model.Device{}, apperror.NotFound("owner", ownerID)
	}
	return model.Device{ID: ownerID, RegisteredAt: at}, nil
}

func (m *mockStore) Push(ctx context.Context, ownerID string, fields store.EventFields) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.pushed = append(m.pushed, fields)
	return "evt-new", nil
}

func (m *mockStore) Set(ctx context.Context, ownerID, eventID string, fields store.EventFields) error {
	if m.err != nil {
		return m.err
	}
	m.set[ownerID+"/"+eventID] = fields
	return nil
}

func (m *mockStore) Remove(ctx context.Context, ownerID, eventID string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, ownerID+"/"+eventID)
	return nil
}

func (m *mockStore) Close() error { return nil }

func newTestService(t *testing.T, st *mockStore) *EventService {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	list := projection.New(context.Background(), st, logger)
	t.Cleanup(func() { list.Close() })

	return NewEventService(st, list, testAdminID, time.Sunday, logger)
}

func TestCreateValidEvent(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	rec, err := svc.Create(context.Background(), "device-1", "  Mom's birthday  ", "2024-05-03")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if rec.Name != "Mom's birthday" {
		t.Errorf("Name = %q, want trimmed %q", rec.Name, "Mom's birthday")
	}
	if rec.Date != "2024-05-03" {
		t.Errorf("Date = %q, want %q", rec.Date, "2024-05-03")
	}
	if rec.EventID == "" {
		t.Error("EventID is empty, want the pushed key")
	}
	if len(st.pushed) != 1 {
		t.Fatalf("pushed %d events, want 1", len(st.pushed))
	}
}

func TestCreateBlankNameRejected(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	_, err := svc.Create(context.Background(), "device-1", "   ", "2024-05-03")
	if !apperror.IsValidation(err) {
		t.Errorf("Create(blank name) error = %v, want validation error", err)
	}
	if len(st.pushed) != 0 {
		t.Error("blank-name event reached the store")
	}
}

func TestCreateEmptyDateDefaultsToToday(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	rec, err := svc.Create(context.Background(), "device-1", "Checkup", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if want := dates.Today().ISO(); rec.Date != want {
		t.Errorf("Date = %q, want today %q", rec.Date, want)
	}
}

func TestCreateMalformedDateRejected(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	for _, bad := range []string{"03/05/2024", "2024-13-01", "2024-02-30", "not a date"} {
		if _, err := svc.Create(context.Background(), "device-1", "Event", bad); !apperror.IsValidation(err) {
			t.Errorf("Create(date=%q) error = %v, want validation error", bad, err)
		}
	}
	if len(st.pushed) != 0 {
		t.Error("malformed-date event reached the store")
	}
}

func TestUpdateWritesOwnSubtree(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	rec, err := svc.Update(context.Background(), "device-1", "evt-1", "Renamed", "2024-06-01")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if rec.OwnerID != "device-1" || rec.EventID != "evt-1" {
		t.Errorf("record addressed %s/%s, want device-1/evt-1", rec.OwnerID, rec.EventID)
	}

	got, ok := st.set["device-1/evt-1"]
	if !ok {
		t.Fatal("Set was not called for device-1/evt-1")
	}
	if got.Name != "Renamed" || got.Date != "2024-06-01" {
		t.Errorf("Set fields = %+v", got)
	}
}

func TestUpdateMissingEventNotFound(t *testing.T) {
	st := newMockStore()
	st.err = apperror.NotFound("event", "gone")
	svc := newTestService(t, st)

	_, err := svc.Update(context.Background(), "device-1", "gone", "Name", "2024-06-01")
	if !apperror.IsNotFound(err) {
		t.Errorf("Update(missing) error = %v, want not-found", err)
	}
}

func TestDeleteByOwner(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	if err := svc.Delete(context.Background(), "device-1", "device-1", "evt-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(st.removed) != 1 || st.removed[0] != "device-1/evt-1" {
		t.Errorf("removed = %v, want [device-1/evt-1]", st.removed)
	}
}

func TestDeleteByAdmin(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	if err := svc.Delete(context.Background(), testAdminID, "device-1", "evt-1"); err != nil {
		t.Fatalf("Delete() as admin error = %v", err)
	}
	if len(st.removed) != 1 {
		t.Errorf("removed = %v, want one record", st.removed)
	}
}

func TestDeleteByStrangerForbidden(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	err := svc.Delete(context.Background(), "device-2", "device-1", "evt-1")
	if !apperror.IsForbidden(err) {
		t.Errorf("Delete() by stranger error = %v, want forbidden", err)
	}
	if len(st.removed) != 0 {
		t.Error("stranger's delete reached the store")
	}
}

func TestDeleteEmptyAdminNeverMatches(t *testing.T) {
	st := newMockStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	list := projection.New(context.Background(), st, logger)
	t.Cleanup(func() { list.Close() })

	// Misconfigured server with no admin: a caller with an empty device
	// id must not inherit admin rights.
	svc := NewEventService(st, list, "", time.Sunday, logger)

	err := svc.Delete(context.Background(), "", "device-1", "evt-1")
	if !apperror.IsForbidden(err) {
		t.Errorf("Delete() with empty ids error = %v, want forbidden", err)
	}
}

func TestRegisterBlankDeviceRejected(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	if _, err := svc.Register(context.Background(), "  "); !apperror.IsValidation(err) {
		t.Errorf("Register(blank) error = %v, want validation error", err)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st)

	first, err := svc.Register(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	second, err := svc.Register(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("second Register() error = %v", err)
	}
	if !second.RegisteredAt.Equal(first.RegisteredAt) {
		t.Error("second Register() overwrote the original registration time")
	}
}

func TestCalendarAggregatesSnapshot(t *testing.T) {
	st := newMockStore(
		model.EventRecord{OwnerID: "a", EventID: "e1", Name: "One", Date: "2024-05-03"},
		model.EventRecord{OwnerID: "b", EventID: "e2", Name: "Two", Date: "2024-05-03"},
		model.EventRecord{OwnerID: "a", EventID: "e3", Name: "Bad", Date: "garbage"},
	)
	svc := newTestService(t, st)

	grid := svc.Calendar(calendar.YearMonth{Year: 2024, Month: time.May})

	var cell *calendar.DayCell
	for i := range grid.Cells {
		if grid.Cells[i].Day == 3 {
			cell = &grid.Cells[i]
			break
		}
	}
	if cell == nil {
		t.Fatal("no cell for day 3")
	}
	if !cell.HasEvents || cell.EventCount != 2 {
		t.Errorf("day 3: HasEvents=%v EventCount=%d, want true/2", cell.HasEvents, cell.EventCount)
	}
}
