package stream

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// wsDevice dials a ws(s):// URL and exposes it as a Handle, adapting
// internal/network's message-oriented WebSocketConn into the byte-stream
// shape stream_read/stream_write expect.
type wsDevice struct{}

func (wsDevice) Open(path, mode string) (Handle, error) {
	conn, _, err := websocket.DefaultDialer.Dial(path, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", path, err)
	}
	return &wsHandle{conn: conn}, nil
}

// wsHandle bridges gorilla/websocket's whole-message ReadMessage/
// WriteMessage pair to Read/Write: a read that doesn't fully drain the
// current message buffers the remainder for the next call, so a script
// reading in small chunks still sees every byte of a large message.
type wsHandle struct {
	conn    *websocket.Conn
	pending []byte
}

func (h *wsHandle) Read(p []byte) (int, error) {
	if len(h.pending) == 0 {
		_, msg, err := h.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		h.pending = msg
	}
	n := copy(p, h.pending)
	h.pending = h.pending[n:]
	return n, nil
}

func (h *wsHandle) Write(p []byte) (int, error) {
	if err := h.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (h *wsHandle) Seek(int64, int) (int64, error) {
	return 0, fmt.Errorf("stream: websocket streams do not support seek")
}

func (h *wsHandle) Close() error {
	h.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return h.conn.Close()
}
