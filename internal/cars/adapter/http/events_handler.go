package http

import (
	"context"
	"sync"
	"time"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localSubscriber = "event_subscriber"

	eventBuffer  = 32
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var carEventTypes = []string{
	eventbus.EventTypeCarCreated,
	eventbus.EventTypeCarUpdated,
	eventbus.EventTypeCarDeleted,
}

// upgradeEvents lets only websocket upgrades through and remembers who is
// subscribing.
func (h *CarHTTPHandler) upgradeEvents(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	c.Locals(localSubscriber, userID)
	return c.Next()
}

func (h *CarHTTPHandler) eventStream() fiber.Handler {
	return websocket.New(h.streamEvents)
}

// streamEvents forwards the owner's car events until the client disconnects.
func (h *CarHTTPHandler) streamEvents(conn *websocket.Conn) {
	owner, _ := conn.Locals(localSubscriber).(string)
	subscriberID := uuid.NewString()
	log := h.log.WithContext(utils.WithUserID(context.Background(), owner)).WithFields(map[string]interface{}{
		"subscriber_id": subscriberID,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := make(chan model.CarEvent, eventBuffer)
	forward := func(_ context.Context, event eventbus.Event) error {
		ev, ok := event.Data().(model.CarEvent)
		if !ok || ev.Owner != owner {
			return nil
		}
		select {
		case queue <- ev:
		case <-ctx.Done():
		default:
			log.Warnf("dropping %s for slow subscriber", ev.Type)
		}
		return nil
	}

	var unsubscribes []eventbus.Unsubscribe
	if h.events != nil {
		for _, eventType := range carEventTypes {
			unsubscribes = append(unsubscribes, h.events.Subscribe(eventType, forward))
		}
	}
	defer func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}()
	log.Info("event subscriber connected")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeEvents(ctx, conn, queue)
		if ctx.Err() == nil {
			// write failed; unblock the read loop
			_ = conn.Close()
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("event subscriber read error: %v", err)
			}
			break
		}
	}

	cancel()
	wg.Wait()
	log.Info("event subscriber disconnected")
}

// writeEvents is the only writer on conn.
func (h *CarHTTPHandler) writeEvents(ctx context.Context, conn *websocket.Conn, queue <-chan model.CarEvent) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
