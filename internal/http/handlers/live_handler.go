// README: Live quote websocket: one quote.Session per connection.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"transporter/internal/modules/pricing"
	"transporter/internal/modules/quote"
)

const (
	pingPeriod   = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 5 * time.Second
	maxFrameSize = 4096
	sendBuffer   = 16
)

type LiveHandler struct {
	pricing  *pricing.Service
	router   pricing.Router
	quiet    time.Duration
	upgrader websocket.Upgrader
}

// AllowsAnyOrigin reports whether origins leaves cross-origin access open: an empty list
// or one containing "*".
func AllowsAnyOrigin(origins []string) bool {
	return len(origins) == 0 || slices.Contains(origins, "*")
}

// NewLiveHandler accepts browser connections from origins, using the same rule as CORS.
func NewLiveHandler(svc *pricing.Service, router pricing.Router, quiet time.Duration, origins []string) *LiveHandler {
	anyOrigin := AllowsAnyOrigin(origins)
	return &LiveHandler{
		pricing: svc,
		router:  router,
		quiet:   quiet,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || anyOrigin || slices.Contains(origins, origin)
			},
		},
	}
}

func (h *LiveHandler) Serve(c *gin.Context) {
	category := pricing.CategoryAuto
	if v := c.Query("category"); v != "" {
		var err error
		if category, err = pricing.ParseCategory(v); err != nil {
			writeQuoteError(c, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	out := make(chan quote.Frame, sendBuffer)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	push := func(f quote.Frame) {
		select {
		case out <- f:
		case <-done:
		}
	}

	session := quote.NewSession(h.pricing, h.router, quote.SessionConfig{
		QuietPeriod: h.quiet,
		Category:    category,
	}, push)
	defer session.Close()

	go writeFrames(conn, out, done, stop)

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	session.Start()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.InfoContext(c.Request.Context(), "live quote connection closed", "error", err)
			}
			break
		}
		var in quote.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			push(badInput("", "invalid json"))
			continue
		}
		if err := session.Handle(in); err != nil {
			push(badInput(in.Type, err.Error()))
		}
	}
	stop()
}

// writeFrames is the only writer on conn. On a write failure it closes conn so the read
// loop unblocks.
func writeFrames(conn *websocket.Conn, out <-chan quote.Frame, done <-chan struct{}, stop func()) {
	defer func() {
		stop()
		conn.Close()
	}()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case f := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func badInput(field, msg string) quote.Frame {
	return quote.Frame{
		Type:  quote.FrameError,
		Error: &quote.ErrorSlot{Code: quote.CodeBadInput, Message: msg, Field: field},
	}
}
