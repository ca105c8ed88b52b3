package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Watch opens the live board stream. Each value on the returned channel
// is a complete sorted snapshot replacing the previous one; the first
// arrives immediately on connect. The channel closes when the stream
// ends — cancel ctx to end it from this side.
func (c *Client) Watch(ctx context.Context) (<-chan []Event, error) {
	wsURL, err := c.watchURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to watch stream: %w", err)
	}

	out := make(chan []Event)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var events []Event
			if err := conn.ReadJSON(&events); err != nil {
				return
			}
			select {
			case out <- events:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close the connection when the context ends so the reader above
	// unblocks from ReadJSON.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return out, nil
}

func (c *Client) watchURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		if !strings.HasPrefix(u.Scheme, "ws") {
			return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
	}
	u.Path = "/api/events/watch"
	return u.String(), nil
}
