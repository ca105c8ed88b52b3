package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/saicojavc/When-Babe/internal/auth"
	"github.com/saicojavc/When-Babe/internal/dates"
	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/service"
)

// EventHandler manages CRUD operations for board events.
//
// Reads are public: the board is shared, and the list endpoint serves
// the projection's current snapshot without touching the database.
// Writes require a device token; the device id in the token — not
// anything in the request body — decides whose subtree is written.
type EventHandler struct {
	svc    *service.EventService
	logger *slog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// eventResponse is the wire shape for one event. displayDate applies
// the dd/MM/yyyy rendering with the invalid-format fallback, so a thin
// client can show the list without date logic of its own.
type eventResponse struct {
	OwnerID     string `json:"ownerId"`
	EventID     string `json:"eventId,omitempty"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	DisplayDate string `json:"displayDate"`
}

func toEventResponse(rec model.EventRecord) eventResponse {
	return eventResponse{
		OwnerID:     rec.OwnerID,
		EventID:     rec.EventID,
		Name:        rec.Name,
		Date:        rec.Date,
		DisplayDate: dates.DisplayOrRaw(rec.Date),
	}
}

type eventRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// HandleList returns the board, newest event date first.
//
// HTTP: GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	records := h.svc.List()

	// Encode [] rather than null when the board is empty.
	out := make([]eventResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toEventResponse(rec))
	}

	writeJSON(w, http.StatusOK, out)
}

// HandleCreate registers a new event under the calling device.
//
// HTTP: POST /api/events  (authenticated)
// REQUEST BODY: {"name": "Mom's birthday", "date": "2024-05-03"}
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := auth.DeviceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid event JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Create(r.Context(), deviceID, req.Name, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(*rec))
}

// HandleUpdate rewrites one of the calling device's own events.
//
// HTTP: PUT /api/events/{eventId}  (authenticated)
//
// There is no ownerId in the URL: the token decides whose subtree is
// written, so a device can never address another device's event here.
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := auth.DeviceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	eventID := r.PathValue("eventId")
	if eventID == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid event JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Update(r.Context(), deviceID, eventID, req.Name, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*rec))
}

// HandleDelete removes an event from the board.
//
// HTTP: DELETE /api/users/{ownerId}/events/{eventId}  (authenticated)
// HTTP: DELETE /api/users/{ownerId}/events            (authenticated)
//
// Unlike update, the owner IS in the URL: the admin device deletes
// other devices' events through the same route. The service checks
// that the caller is the owner or the admin. The id-less variant
// addresses a legacy single-event node, which has no id of its own.
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := auth.DeviceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := r.PathValue("ownerId")
	if ownerID == "" {
		http.Error(w, "Owner ID is required", http.StatusBadRequest)
		return
	}
	eventID := r.PathValue("eventId") // empty on the legacy route

	if err := h.svc.Delete(r.Context(), deviceID, ownerID, eventID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
