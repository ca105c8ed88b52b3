package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saicojavc/When-Babe/internal/auth"
	"github.com/saicojavc/When-Babe/internal/service"
)

// DeviceHandler handles device registration.
//
// There are no accounts: a device generates a UUID on first launch and
// presents it here. The server records it (set-once) and hands back a
// signed token the device uses as a Bearer credential on every write.
// Registering the same id again is harmless, so clients can call this
// on every startup without tracking whether they already did.
type DeviceHandler struct {
	svc    *service.EventService
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(svc *service.EventService, tokens *auth.TokenService, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{svc: svc, tokens: tokens, logger: logger}
}

type registerRequest struct {
	DeviceID string `json:"deviceId"`
}

type registerResponse struct {
	DeviceID     string    `json:"deviceId"`
	RegisteredAt time.Time `json:"registeredAt"`
	Token        string    `json:"token"`
}

// HandleRegister records a device and issues its token.
//
// HTTP: POST /api/devices
// REQUEST BODY: {"deviceId": "uuid"}
// RESPONSE: {"deviceId": "uuid", "registeredAt": "...", "token": "..."}
//
// registeredAt is the stored first-launch time — re-registering never
// moves it.
//
// This endpoint is unauthenticated by necessity — it is where the
// credential comes from. The worst an impostor can do with a guessed
// id is obtain a token for a subtree they could also have created
// legitimately; there is no account to take over.
func (h *DeviceHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid registration JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	device, err := h.svc.Register(r.Context(), req.DeviceID)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Generate(device.ID)
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		DeviceID:     device.ID,
		RegisteredAt: device.RegisteredAt,
		Token:        token,
	})
}
