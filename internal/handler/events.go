package handler

import (
	"io"
	"net/http"
	"time"

	"cantina/internal/middleware"
	"cantina/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	eventBuffer       = 64
	keepAliveInterval = 25 * time.Second
)

type EventsHandler struct{ store *repository.EntityStore }

func NewEventsHandler(store *repository.EntityStore) *EventsHandler {
	return &EventsHandler{store: store}
}

// Stream godoc
// @Summary      Fluxo de alteracoes (SSE)
// @Description  Envia um evento por escrita confirmada, limitado a escola do operador.
// @Description  Clientes lentos perdem eventos e devem recarregar a listagem.
// @Tags         events
// @Produce      text/event-stream
// @Security     BearerAuth
// @Router       /v1/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	scope := middleware.GetScope(c)
	events := make(chan repository.ChangeEvent, eventBuffer)

	// The listener runs on the committing goroutine and must not block.
	unsubscribe := h.store.Subscribe(repository.KindAny, func(ev repository.ChangeEvent) {
		if !scope.AllowsEvent(ev) {
			return
		}
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// Streams outlive the server's WriteTimeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-events:
			c.SSEvent(string(ev.Kind), ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
