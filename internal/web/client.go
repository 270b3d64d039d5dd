package web

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/blockedby/flight-stats/internal/stats"
	"github.com/blockedby/flight-stats/internal/view"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

// PanelRenderer turns a view model into the stats panel HTML.
type PanelRenderer interface {
	RenderPanel(m view.Model) (string, error)
}

// Client is one live browser session. It owns a mounted view for the
// lifetime of its websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	view *view.View
	log  *zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// queue sends message without blocking. It reports false when the client is
// gone or its buffer is full.
func (c *Client) queue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// LiveHandler upgrades requests to websocket sessions.
type LiveHandler struct {
	hub         *Hub
	views       *view.Factory
	panels      PanelRenderer
	defaultYear int
	log         *zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewLiveHandler creates a handler for GET /ws. origins lists the allowed
// browser origins, "*" allows any.
func NewLiveHandler(hub *Hub, views *view.Factory, panels PanelRenderer, defaultYear int, origins []string, log *zerolog.Logger) *LiveHandler {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &LiveHandler{
		hub:         hub,
		views:       views,
		panels:      panels,
		defaultYear: defaultYear,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(origins),
		},
	}
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeHTTP starts a live session for ?year (default year when absent).
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	year, err := stats.ParseYear(r.URL.Query().Get("year"), h.defaultYear)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  h.log,
	}
	client.view = h.views.New(year, view.WithListener(client.pushState(h.panels)))

	if !h.hub.add(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()

	if _, err := client.view.Mount(); err != nil {
		h.log.Error().Err(err).Int("year", year).Msg("mount live view")
	}

	go client.readPump()
}

// pushState renders every transition and queues it for the browser.
// A client that cannot keep up is disconnected rather than shown a gap.
func (c *Client) pushState(panels PanelRenderer) view.Listener {
	return func(s view.State) {
		m := view.Render(s)
		html, err := panels.RenderPanel(m)
		if err != nil {
			c.log.Error().Err(err).Int("year", s.Year).Msg("render stats panel")
		}
		if !c.queue(StatsStateEvent(m, html)) {
			c.log.Warn().Int("year", s.Year).Msg("live session send buffer full, closing")
			_ = c.conn.Close()
		}
	}
}

// readPump handles year selections until the connection ends, then unmounts
// the view and leaves the hub.
func (c *Client) readPump() {
	defer func() {
		c.view.Unmount()
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("live session closed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.queue(ErrorEvent("malformed message"))
			continue
		}

		switch msg.Type {
		case EventSelectYear:
			if _, err := c.view.SelectYear(msg.Year); err != nil {
				if errors.Is(err, view.ErrUnmounted) {
					return
				}
				c.queue(ErrorEvent(err.Error()))
			}
		default:
			c.queue(ErrorEvent("unknown message type: " + msg.Type))
		}
	}
}

// writePump forwards queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
