package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/sse"
)

type SSEHandler struct {
	hub *sse.Hub
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream subscribes the caller to entity-change events:
// GET /events (token via query param).
func (h *SSEHandler) Stream(c *gin.Context) {
	client := &sse.Client{
		ID:     uuid.New().String(),
		UserID: actorID(c),
		Events: make(chan sse.Event, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, okCh := <-client.Events:
			if !okCh {
				return false
			}
			c.SSEvent(event.EventType, event.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
