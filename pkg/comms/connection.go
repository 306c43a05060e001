package comms

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is a duplex client connection. Implementations must allow WriteJSON
// and Close to be called from multiple goroutines.
type Conn interface {
	// ReadMessage reads the next raw message from the client.
	ReadMessage() ([]byte, error)

	// WriteJSON sends a message to the client as JSON.
	WriteJSON(v interface{}) error

	// Close tears the connection down. Closing twice is harmless.
	Close() error
}

// SocketConn is a Conn wrapping a websocket connection.
type SocketConn struct {
	socket *websocket.Conn

	// Gorilla sockets support at most one concurrent writer.
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func NewSocketConn(socket *websocket.Conn) *SocketConn {
	return &SocketConn{socket: socket}
}

func (c *SocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.socket.ReadMessage()
	return data, err
}

func (c *SocketConn) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.socket.WriteJSON(v)
}

func (c *SocketConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.socket.Close()
	})
	return c.closeErr
}
