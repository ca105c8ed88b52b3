// Package client is the Go API client for the event board server.
//
// The CLI is its only consumer today, but the package keeps all wire
// knowledge (routes, JSON shapes, auth header) out of the command code
// so the two can evolve separately.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Event is one board entry as the server reports it. DisplayDate is
// pre-rendered server-side (dd/MM/yyyy, or the raw value annotated when
// it does not parse), so the CLI prints it verbatim.
type Event struct {
	OwnerID     string `json:"ownerId"`
	EventID     string `json:"eventId,omitempty"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	DisplayDate string `json:"displayDate"`
}

// CalendarMonth is the aggregate month view.
type CalendarMonth struct {
	Month struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	} `json:"month"`
	LeadingBlanks int       `json:"leadingBlanks"`
	Cells         []DayCell `json:"cells"`
	Weekdays      [7]string `json:"weekdays"`
}

// DayCell is one day in the month grid.
type DayCell struct {
	Day        int    `json:"day"`
	Date       string `json:"date"`
	Today      bool   `json:"today"`
	HasEvents  bool   `json:"hasEvents"`
	EventCount int    `json:"eventCount"`
}

// APIError is a structured error response from the server.
type APIError struct {
	Status  int    // HTTP status code
	Type    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// Client talks to one event board server. Zero value is not usable;
// create with New.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the server at baseURL (scheme and host,
// e.g. "http://localhost:8080"). token may be empty for read-only use.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the bearer token for subsequent writes, typically
// right after Register.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Register announces the device to the server and returns its bearer
// token. Safe to call on every startup — registration is set-once
// server-side.
func (c *Client) Register(ctx context.Context, deviceID string) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/devices",
		map[string]string{"deviceId": deviceID}, &res)
	if err != nil {
		return "", fmt.Errorf("registering device: %w", err)
	}
	return res.Token, nil
}

// ListEvents fetches the board, newest event date first.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// CreateEvent registers a new event under this device. An empty date
// means today.
func (c *Client) CreateEvent(ctx context.Context, name, date string) (*Event, error) {
	var ev Event
	err := c.do(ctx, http.MethodPost, "/api/events",
		map[string]string{"name": name, "date": date}, &ev)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return &ev, nil
}

// UpdateEvent rewrites one of this device's own events.
func (c *Client) UpdateEvent(ctx context.Context, eventID, name, date string) (*Event, error) {
	var ev Event
	err := c.do(ctx, http.MethodPut, "/api/events/"+url.PathEscape(eventID),
		map[string]string{"name": name, "date": date}, &ev)
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}
	return &ev, nil
}

// DeleteEvent removes an event. Deleting another device's event only
// succeeds for the admin device. An empty eventID addresses an owner's
// legacy single-event node.
func (c *Client) DeleteEvent(ctx context.Context, ownerID, eventID string) error {
	path := "/api/users/" + url.PathEscape(ownerID) + "/events"
	if eventID != "" {
		path += "/" + url.PathEscape(eventID)
	}
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

// Calendar fetches the aggregate grid for one month (month is 1-12).
func (c *Client) Calendar(ctx context.Context, year, month int) (*CalendarMonth, error) {
	var cal CalendarMonth
	path := fmt.Sprintf("/api/calendar/%d/%d", year, month)
	if err := c.do(ctx, http.MethodGet, path, nil, &cal); err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	return &cal, nil
}

// do executes one JSON round trip. out may be nil for 204 responses.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		apiErr := &APIError{Status: res.StatusCode}
		// The error body may be plain text (auth failures from
		// http.Error); fall back to the status message then.
		if err := json.NewDecoder(res.Body).Decode(apiErr); err != nil {
			apiErr.Message = res.Status
		}
		return apiErr
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
