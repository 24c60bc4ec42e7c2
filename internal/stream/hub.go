// Package stream pushes regenerated ops summaries to websocket clients.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"manualexec/internal/models"
)

type Hub struct {
	Logger         *zap.Logger
	OriginPatterns []string

	mu   sync.RWMutex
	subs map[chan models.OpsSummary]struct{}
	last *models.OpsSummary
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{Logger: logger, subs: map[chan models.OpsSummary]struct{}{}}
}

// Publish fans out to every subscriber. A subscriber whose buffer is full
// misses the update; the next one carries the full state anyway.
func (h *Hub) Publish(summary *models.OpsSummary) {
	if h == nil || summary == nil {
		return
	}
	cp := *summary
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &cp
	for ch := range h.subs {
		select {
		case ch <- cp:
		default:
		}
	}
}

func (h *Hub) Subscribe(buf int) chan models.OpsSummary {
	if buf <= 0 {
		buf = 8
	}
	ch := make(chan models.OpsSummary, buf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan models.OpsSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) Last() *models.OpsSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return nil
	}
	cp := *h.last
	return &cp
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Serve upgrades the request and streams summaries until either side closes.
func (h *Hub) Serve(c *gin.Context) {
	opts := &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns}
	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	sub := h.Subscribe(16)
	defer h.Unsubscribe(sub)

	if last := h.Last(); last != nil {
		if err := wsjson.Write(ctx, conn, last); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "write_failed")
			return
		}
	}
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-readErr:
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case summary, ok := <-sub:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, summary)
			cancelWrite()
			if err != nil {
				if h.Logger != nil {
					h.Logger.Debug("ops stream write failed", zap.Error(err))
				}
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

// Status is a plain HTTP fallback for clients that cannot upgrade.
func (h *Hub) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subscribers": h.Subscribers(), "last": h.Last()})
}
