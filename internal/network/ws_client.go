// Package network connects to a running macrorec API server and follows
// its websocket notifications.
package network

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"macrorec/internal/macro"
	"macrorec/internal/protocol"
)

// DefaultRetry is the wait between reconnection attempts.
const DefaultRetry = 5 * time.Second

// envelope is a received message whose payload is decoded by type.
type envelope struct {
	Type    protocol.MessageType `json:"type"`
	Payload json.RawMessage      `json:"payload"`
}

// WSClient follows the notifications of a macrorec server
type WSClient struct {
	addr  string
	token string
	retry time.Duration
	send  chan protocol.Message

	// Callbacks run on the read goroutine.
	OnConnect   func()
	OnChanged   func(m macro.Macro)
	OnPosition  func(p protocol.PositionPayload)
	OnRecording func(p protocol.RecordingPayload)
	OnPlayback  func(p protocol.PlaybackPayload)
	OnStatus    func(s protocol.Status)

	mu          sync.Mutex
	isConnected bool
}

// NewWSClient creates a client for the server at addr (host:port). token is
// sent as a query parameter when set.
func NewWSClient(addr, token string) *WSClient {
	return &WSClient{
		addr:  addr,
		token: token,
		retry: DefaultRetry,
		send:  make(chan protocol.Message, 100),
	}
}

// SetRetry changes the wait between reconnection attempts.
func (c *WSClient) SetRetry(d time.Duration) {
	c.retry = d
}

func (c *WSClient) url() string {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/ws"}
	if c.token != "" {
		u.RawQuery = url.Values{"token": {c.token}}.Encode()
	}
	return u.String()
}

// Run connects and reconnects until ctx is done.
func (c *WSClient) Run(ctx context.Context) error {
	for {
		c.connect(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retry):
			log.Println("WS Client: Attempting reconnection...")
		}
	}
}

func (c *WSClient) connect(ctx context.Context) {
	log.Printf("WS Client: Connecting to %s", c.addr)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url(), nil)
	if err != nil {
		log.Printf("WS Client: Connection failed: %v", err)
		return
	}
	defer conn.Close()

	c.setConnected(true)
	defer c.setConnected(false)
	log.Println("WS Client: Connected")

	// A fresh connection starts from a full snapshot.
	c.SendSyncRequest()
	if c.OnConnect != nil {
		c.OnConnect()
	}

	readDone := make(chan struct{})
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		c.writePump(ctx, conn, readDone)
	}()

	c.readPump(conn)
	close(readDone)
	<-writeDone
}

func (c *WSClient) setConnected(v bool) {
	c.mu.Lock()
	c.isConnected = v
	c.mu.Unlock()
}

func (c *WSClient) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WS Client: Read error: %v", err)
			}
			return
		}

		var msg envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WS Client: Invalid message: %v", err)
			continue
		}
		c.handleMessage(msg)
	}
}

// writePump exits when ctx is done, the read side has stopped or a write
// fails.
func (c *WSClient) writePump(ctx context.Context, conn *websocket.Conn, readDone <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-readDone:
			return

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
			return
		}
	}
}

func decode[T any](raw json.RawMessage, fn func(T)) {
	if fn == nil {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("WS Client: Invalid payload: %v", err)
		return
	}
	fn(v)
}

func (c *WSClient) handleMessage(msg envelope) {
	switch msg.Type {
	case protocol.TypeChanged:
		if c.OnChanged == nil {
			return
		}
		m, err := macro.Decode(msg.Payload)
		if err != nil {
			log.Printf("WS Client: Invalid macro: %v", err)
			return
		}
		c.OnChanged(m)

	case protocol.TypePosition:
		decode(msg.Payload, c.OnPosition)

	case protocol.TypeRecording:
		decode(msg.Payload, c.OnRecording)

	case protocol.TypePlayback:
		decode(msg.Payload, c.OnPlayback)

	case protocol.TypeStatus:
		decode(msg.Payload, c.OnStatus)
	}
}

// SendSyncRequest asks the server for the macro and status
func (c *WSClient) SendSyncRequest() {
	select {
	case c.send <- protocol.Message{Type: protocol.TypeSyncRequest}:
	default:
	}
}

// IsConnected returns true while a connection is open
func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}
