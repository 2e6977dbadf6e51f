// Package protocol defines the JSON messages exchanged with presentation
// clients over the API websocket.
package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeChanged is broadcast after the macro structure changed. The
	// payload is the full macro in file format.
	TypeChanged MessageType = "changed"

	// TypePosition is broadcast for every replay step or gap entered or left
	TypePosition MessageType = "position"

	// TypeRecording is broadcast when recording starts or stops
	TypeRecording MessageType = "recording"

	// TypePlayback is broadcast when replay starts and when it ends
	TypePlayback MessageType = "playback"

	// TypeSyncRequest is sent by a client to receive the macro and status
	TypeSyncRequest MessageType = "sync_req"

	// TypeStatus carries a Status snapshot
	TypeStatus MessageType = "status"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// PositionPayload is the payload for TypePosition. Step is -1 for the gap
// after Section.
type PositionPayload struct {
	Section  int  `json:"section"`
	Step     int  `json:"step"`
	Entering bool `json:"entering"`
}

// RecordingPayload is the payload for TypeRecording
type RecordingPayload struct {
	Active  bool   `json:"active"`
	Section int    `json:"section"`
	Session string `json:"session,omitempty"`
}

// Playback states
const (
	PlaybackStarted     = "started"
	PlaybackFinished    = "finished"
	PlaybackInterrupted = "interrupted"
	PlaybackFailed      = "failed"
)

// PlaybackPayload is the payload for TypePlayback
type PlaybackPayload struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// Status summarizes the recorder for clients
type Status struct {
	Recording     bool   `json:"recording"`
	ActiveSection int    `json:"active_section"`
	Session       string `json:"session,omitempty"`
	Playing       bool   `json:"playing"`
	Sections      int    `json:"sections"`
	Steps         int    `json:"steps"`
	TotalMs       int64  `json:"total_ms"`
	MacroPath     string `json:"macro_path,omitempty"`
}
