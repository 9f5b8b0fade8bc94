package server

import "github.com/benchwise/finsight/advisor"

// ClientMessage is a message received from a websocket client.
type ClientMessage struct {
	// Type is "query" or "reset".
	Type string `json:"type"`

	// Content is the user's question for "query" messages.
	Content string `json:"content,omitempty"`
}

// ServerMessage is a message sent to a websocket client.
type ServerMessage struct {
	// Type is "session_started", "answer", "session_reset", or "error".
	Type string `json:"type"`

	// SessionID identifies the connection's session.
	SessionID string `json:"sessionId,omitempty"`

	// Content carries error text.
	Content string `json:"content,omitempty"`

	// Response is the advisor's answer for "answer" messages.
	Response *advisor.Response `json:"response,omitempty"`
}
