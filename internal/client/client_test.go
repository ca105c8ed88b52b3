package client_test

// These tests run the real router over httptest with an in-memory
// database, so the client is exercised against the actual wire
// contract rather than canned fixtures.

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saicojavc/When-Babe/internal/client"
	"github.com/saicojavc/When-Babe/internal/config"
	"github.com/saicojavc/When-Babe/internal/server"
)

const adminDeviceID = "0be2f871-aa42-4258-81b4-383dd7bf1860"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.JWTSecret = "test-secret-at-least-32-characters!!"
	cfg.AdminDeviceID = adminDeviceID

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// registeredClient registers a device and returns a client holding its
// token.
func registeredClient(t *testing.T, ts *httptest.Server, deviceID string) *client.Client {
	t.Helper()

	c := client.New(ts.URL, "")
	token, err := c.Register(context.Background(), deviceID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	c.SetToken(token)
	return c
}

func TestClient_EventLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	c := registeredClient(t, ts, "device-1")

	ev, err := c.CreateEvent(ctx, "Mom's birthday", "2024-05-03")
	require.NoError(t, err)
	assert.Equal(t, "device-1", ev.OwnerID)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "03/05/2024", ev.DisplayDate)

	events, err := c.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Mom's birthday", events[0].Name)

	updated, err := c.UpdateEvent(ctx, ev.EventID, "Mum's birthday", "2024-05-04")
	require.NoError(t, err)
	assert.Equal(t, "Mum's birthday", updated.Name)
	assert.Equal(t, "2024-05-04", updated.Date)

	require.NoError(t, c.DeleteEvent(ctx, ev.OwnerID, ev.EventID))

	events, err = c.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClient_ReadsNeedNoToken(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	writer := registeredClient(t, ts, "device-1")
	_, err := writer.CreateEvent(ctx, "Shared", "2024-05-03")
	require.NoError(t, err)

	reader := client.New(ts.URL, "")
	events, err := reader.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestClient_WriteWithoutTokenFails(t *testing.T) {
	ts := newTestServer(t)

	c := client.New(ts.URL, "")
	_, err := c.CreateEvent(context.Background(), "Nope", "2024-05-03")
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestClient_ForbiddenDeleteSurfacesMessage(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	owner := registeredClient(t, ts, "device-1")
	ev, err := owner.CreateEvent(ctx, "Private", "2024-05-03")
	require.NoError(t, err)

	stranger := registeredClient(t, ts, "device-2")
	err = stranger.DeleteEvent(ctx, ev.OwnerID, ev.EventID)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	assert.Equal(t, "forbidden", apiErr.Type)
}

func TestClient_AdminDeletesAnyEvent(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	owner := registeredClient(t, ts, "device-1")
	ev, err := owner.CreateEvent(ctx, "Doomed", "2024-05-03")
	require.NoError(t, err)

	admin := registeredClient(t, ts, adminDeviceID)
	require.NoError(t, admin.DeleteEvent(ctx, ev.OwnerID, ev.EventID))

	events, err := owner.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClient_Calendar(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	c := registeredClient(t, ts, "device-1")
	_, err := c.CreateEvent(ctx, "One", "2024-05-03")
	require.NoError(t, err)
	_, err = c.CreateEvent(ctx, "Two", "2024-05-03")
	require.NoError(t, err)

	cal, err := c.Calendar(ctx, 2024, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, cal.LeadingBlanks)
	require.Len(t, cal.Cells, 31)
	assert.Equal(t, 2, cal.Cells[2].EventCount)
}

func TestClient_WatchStreamsSnapshots(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := registeredClient(t, ts, "device-1")

	updates, err := c.Watch(ctx)
	require.NoError(t, err)

	// First message is the current (empty) board.
	select {
	case snapshot := <-updates:
		assert.Empty(t, snapshot)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot within 5s")
	}

	_, err = c.CreateEvent(ctx, "Live", "2024-05-03")
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case snapshot, ok := <-updates:
			require.True(t, ok, "stream closed before the event arrived")
			if len(snapshot) == 1 && snapshot[0].Name == "Live" {
				return
			}
		case <-deadline:
			t.Fatal("created event never arrived on the stream")
		}
	}
}
