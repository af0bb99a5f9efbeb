package admin

import (
	"io"
	"time"

	"github.com/kuajing-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	streamBuffer       = 32
	streamPingInterval = 25 * time.Second
)

// AdminStreamOrders 以 SSE 推送订单变更事件
func (h *Handler) AdminStreamOrders(c *gin.Context) {
	if h.EventHub == nil {
		respondError(c, response.CodeInternal, "error.stream_unavailable", nil)
		return
	}
	ch, cancel := h.EventHub.Subscribe(streamBuffer)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().Unix()})
			return true
		}
	})
}
