package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const heartbeatInterval = 15 * time.Second

// StreamEvents bridges a bus subscription onto a server-sent event
// stream. Events are best effort: anything published before the
// subscription existed is never seen here, and a client that wants a
// consistent view reconciles by polling the feed. The subscription is
// dropped as soon as the client goes away.
func (h *Handler) StreamEvents(c echo.Context) error {
	sub := h.Bus.Subscribe()
	defer h.Bus.Unsubscribe(sub)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ctx := c.Request().Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-sub.Events():
			if !ok {
				return nil
			}
			data, err := json.Marshal(evt)
			if err != nil {
				c.Logger().Error(err)
				continue
			}
			fmt.Fprintf(resp, "event: posts\ndata: %s\n\n", data)
			resp.Flush()
		case <-heartbeat.C:
			fmt.Fprint(resp, ": ping\n\n")
			resp.Flush()
		}
	}
}
