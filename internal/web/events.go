package web

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/blockedby/flight-stats/internal/view"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WebSocket event types
const (
	EventStatsState     = "stats.state"
	EventError          = "error"
	EventServerShutdown = "server.shutdown"

	// sent by the browser
	EventSelectYear = "select_year"
)

// WSEvent represents a structured WebSocket message
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientMessage is a message received from the browser.
type ClientMessage struct {
	Type string `json:"type"`
	Year int    `json:"year"`
}

// StatsStatePayload is the payload for EventStatsState
type StatsStatePayload struct {
	Phase view.Phase `json:"phase"`
	Year  int        `json:"year"`
	Title string     `json:"title"`
	HTML  string     `json:"html"`
}

// ErrorPayload is the payload for EventError
type ErrorPayload struct {
	Message string `json:"message"`
}

// StatsStateEvent creates a JSON message carrying the rendered panel.
func StatsStateEvent(m view.Model, html string) []byte {
	return encodeEvent(WSEvent{
		Type: EventStatsState,
		Payload: StatsStatePayload{
			Phase: m.Phase,
			Year:  m.Year,
			Title: m.Title,
			HTML:  html,
		},
	})
}

// ErrorEvent creates a JSON message for a rejected client message.
func ErrorEvent(msg string) []byte {
	return encodeEvent(WSEvent{Type: EventError, Payload: ErrorPayload{Message: msg}})
}

// ShutdownEvent tells connected browsers the server is going away.
func ShutdownEvent() []byte {
	return encodeEvent(WSEvent{Type: EventServerShutdown})
}

func encodeEvent(evt WSEvent) []byte {
	b, _ := json.Marshal(evt)
	return b
}
