// Package realtime implements in-process fanout of channel traffic to
// live WebSocket subscribers.
package realtime

// Client-initiated frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

// Server-initiated frame types.
const (
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameMessage      = "message"
	FrameError        = "error"
)

// ClientFrame is a command received from a connected client.
type ClientFrame struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
}

// ServerFrame is pushed to connected clients.
type ServerFrame struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}
