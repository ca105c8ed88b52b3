// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-layer shape:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Store   (data layer)     → reads/writes the event tree
//
// The service knows nothing about HTTP: it takes primitives and returns
// domain errors (apperror values), which the handler layer translates to
// status codes. It receives the store as an interface, so tests inject an
// in-memory fake instead of SQLite.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saicojavc/When-Babe/internal/apperror"
	"github.com/saicojavc/When-Babe/internal/calendar"
	"github.com/saicojavc/When-Babe/internal/dates"
	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/projection"
	"github.com/saicojavc/When-Babe/internal/store"
)

// MaxEventNameLength bounds the free-text event name. The original UI
// never enforced a maximum; the API does, because nothing else will.
const MaxEventNameLength = 200

// EventService handles business logic for the shared event board.
//
// adminID is the single allow-listed device permitted to delete anyone's
// event — injected from configuration, never compared against a literal
// here.
type EventService struct {
	store     store.Store
	list      *projection.EventList
	adminID   string
	weekStart time.Weekday
	logger    *slog.Logger
}

// NewEventService creates an EventService. list may serve many callers;
// the service only ever reads its snapshot.
func NewEventService(st store.Store, list *projection.EventList, adminID string, weekStart time.Weekday, logger *slog.Logger) *EventService {
	return &EventService{
		store:     st,
		list:      list,
		adminID:   adminID,
		weekStart: weekStart,
		logger:    logger,
	}
}

// Register records a device's first launch and returns its registration
// record. Registering an already-known device is a no-op — the returned
// RegisteredAt stays the original one — so clients call this
// unconditionally on startup.
func (s *EventService) Register(ctx context.Context, deviceID string) (*model.Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, apperror.ValidationFailed("deviceId", "device id is required")
	}

	if err := s.store.RegisterOwner(ctx, deviceID, time.Now()); err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}

	device, err := s.store.Owner(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}

	s.logger.Info("device registered", slog.String("deviceId", deviceID))
	return &device, nil
}

// List returns the current sorted snapshot: newest event date first,
// unparseable dates last.
func (s *EventService) List() []model.EventRecord {
	return s.list.Snapshot()
}

// Create validates and stores a new event under the owner's subtree.
//
// Rules, matching the entry form: the name must be non-blank; an empty
// date defaults to today; a non-empty date must be a valid YYYY-MM-DD —
// the board tolerates malformed dates in OLD data, but never mints new
// ones.
func (s *EventService) Create(ctx context.Context, ownerID, name, date string) (*model.EventRecord, error) {
	fields, err := validateFields(name, date)
	if err != nil {
		return nil, err
	}

	eventID, err := s.store.Push(ctx, ownerID, fields)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("ownerId", ownerID),
		slog.String("eventId", eventID),
	)
	return &model.EventRecord{
		OwnerID: ownerID,
		EventID: eventID,
		Name:    fields.Name,
		Date:    fields.Date,
	}, nil
}

// Update overwrites the name/date of one of the owner's events.
// Ownership is structural — the write goes under the caller's own
// subtree, so an unknown eventID there is NotFound, never someone
// else's record.
func (s *EventService) Update(ctx context.Context, ownerID, eventID, name, date string) (*model.EventRecord, error) {
	fields, err := validateFields(name, date)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, ownerID, eventID, fields); err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}

	s.logger.Info("event updated",
		slog.String("ownerId", ownerID),
		slog.String("eventId", eventID),
	)
	return &model.EventRecord{
		OwnerID: ownerID,
		EventID: eventID,
		Name:    fields.Name,
		Date:    fields.Date,
	}, nil
}

// Delete removes an event. The caller must be the owner, or the one
// allow-listed admin device, which may delete anyone's event.
func (s *EventService) Delete(ctx context.Context, callerID, ownerID, eventID string) error {
	if callerID != ownerID && (s.adminID == "" || callerID != s.adminID) {
		return apperror.Forbidden("only the owner can delete this event")
	}

	if err := s.store.Remove(ctx, ownerID, eventID); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	s.logger.Info("event deleted",
		slog.String("ownerId", ownerID),
		slog.String("eventId", eventID),
		slog.String("deletedBy", callerID),
	)
	return nil
}

// WeekStart reports the configured first day of the displayed week.
func (s *EventService) WeekStart() time.Weekday {
	return s.weekStart
}

// Calendar builds the month grid for the aggregate calendar view:
// every parseable event in the current snapshot grouped by date, with
// today flagged. There is no selection in the aggregate view.
func (s *EventService) Calendar(ym calendar.YearMonth) calendar.Grid {
	byDate := calendar.GroupByDate(s.list.Snapshot())
	return calendar.BuildGrid(ym, dates.Date{}, dates.Today(), byDate, s.weekStart)
}

// validateFields applies the entry-form rules and returns the writable
// node payload.
func validateFields(name, date string) (store.EventFields, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.EventFields{}, apperror.ValidationFailed("name", "event name is required")
	}
	if len(name) > MaxEventNameLength {
		return store.EventFields{}, apperror.ValidationFailed("name",
			fmt.Sprintf("event name must be at most %d characters", MaxEventNameLength))
	}

	if date == "" {
		date = dates.Today().ISO()
	} else if _, ok := dates.ParseISO(date); !ok {
		return store.EventFields{}, apperror.ValidationFailed("date", "date must be a valid YYYY-MM-DD")
	}

	return store.EventFields{Name: name, Date: date}, nil
}
