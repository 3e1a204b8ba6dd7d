package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"car-listing/internal/cars/domain/model"

	"github.com/fasthttp/websocket"
)

const handshakeTimeout = 10 * time.Second

// eventsURL turns the API root into the websocket address of the car feed.
func (c *Client) eventsURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/cars/events"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/cars/events"
	default:
		return c.baseURL + "/cars/events"
	}
}

// WatchEvents streams the signed-in user's car events to fn until ctx is
// cancelled or the server closes the feed. Cancellation returns nil.
func (c *Client) WatchEvents(ctx context.Context, fn func(model.CarEvent)) error {
	header := http.Header{}
	sent := c.authorize(header)

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, c.eventsURL(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized {
				c.signOut(sent)
			}
			return newStatusError(resp.StatusCode, "")
		}
		if ctx.Err() != nil {
			return nil
		}
		c.log.Debugf("event feed dial failed: %v", err)
		return ErrNetwork
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		var ev model.CarEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		fn(ev)
	}
}
