package network

import (
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Transport is the byte-level link a Client or Server sends packets over.
// Send/Recv frame one packet per call; the tagged-union encoding lives in
// packets.go above this.
type Transport interface {
	Send(payload []byte) error
	Recv() ([]byte, error)
	Close() error
}

// WSTransport adapts a gorilla websocket connection to Transport, grounded
// on the sushiag pack's per-connection read/write-loop pairing: a
// dedicated writer goroutine drains an outgoing channel of 64 payloads, so
// Send blocks only once that queue is full, while Recv is safe to call
// from a single reader goroutine per the gorilla websocket contract.
type WSTransport struct {
	conn     *websocket.Conn
	outgoing chan []byte
	closed   chan struct{}
}

// NewWSTransport starts the write-loop goroutine and returns a ready
// Transport.
func NewWSTransport(conn *websocket.Conn) *WSTransport {
	t := &WSTransport{
		conn:     conn,
		outgoing: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
	go t.writeLoop()
	return t
}

func (t *WSTransport) writeLoop() {
	for {
		select {
		case msg := <-t.outgoing:
			if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logrus.WithError(err).Warn("network: websocket write failed")
				return
			}
		case <-t.closed:
			return
		}
	}
}

// Send enqueues payload for the write loop, blocking while the queue is
// full.
func (t *WSTransport) Send(payload []byte) error {
	select {
	case t.outgoing <- payload:
		return nil
	case <-t.closed:
		return websocket.ErrCloseSent
	}
}

// Recv blocks for the next text frame, discarding binary frames — this
// transport is JSON-only, mirroring the teacher's own text-message
// convention.
func (t *WSTransport) Recv() ([]byte, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

// Close stops the write loop and closes the underlying connection.
func (t *WSTransport) Close() error {
	close(t.closed)
	return t.conn.Close()
}
