package driver

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

//Preview sends every frame as binary websocket message to all connected browsers. It is an
//http.Handler; mount it wherever the preview should be served.
type Preview struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*previewClient]struct{}
	closed   bool
}

type previewClient struct {
	conn   *websocket.Conn
	frames chan []byte
}

//NewPreview creates a preview driver without any clients
func NewPreview() *Preview {
	return &Preview{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*previewClient]struct{}),
	}
}

func (p *Preview) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: ", err)
		return
	}
	c := &previewClient{conn: conn, frames: make(chan []byte, 1)}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return
	}
	p.clients[c] = struct{}{}
	p.mu.Unlock()
	logger.WithField("remote", r.RemoteAddr).Debug("preview client connected")

	go c.writer()
	//the reader only notices when the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("preview client read failed: ", err)
			}
			break
		}
	}
	p.remove(c)
	logger.WithField("remote", r.RemoteAddr).Debug("preview client disconnected")
}

func (c *previewClient) writer() {
	for frame := range c.frames {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			logger.Debug("preview write failed: ", err)
			c.conn.Close()
			for range c.frames {
			}
			return
		}
	}
	c.conn.Close()
}

func (p *Preview) remove(c *previewClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; ok {
		delete(p.clients, c)
		close(c.frames)
	}
}

//Clients returns the number of connected clients
func (p *Preview) Clients() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

//Write queues the frame for every client. A client that is still busy with the previous frame
//gets the newer one instead.
func (p *Preview) Write(rgb []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.clients {
		frame := append([]byte(nil), rgb...)
		select {
		case c.frames <- frame:
			continue
		default:
		}
		select {
		case <-c.frames:
		default:
		}
		select {
		case c.frames <- frame:
		default:
		}
	}
	return nil
}

//Close disconnects all clients
func (p *Preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for c := range p.clients {
		delete(p.clients, c)
		close(c.frames)
	}
	return nil
}
