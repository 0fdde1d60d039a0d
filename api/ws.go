package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = time.Second * 10

type connection struct {
	// The websocket connection
	ws *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// The hub
	h *hub
}

// reader drains the connection so control frames are processed. The feed
// is one way; anything a client sends is ignored.
func (c *connection) reader() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			log.Debugf("Websocket read error: %s", err)
			break
		}
	}
	c.ws.Close()
}

func (c *connection) writer() {
	for message := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Errorf("Websocket write error: %s", err)
			break
		}
	}
	c.ws.Close()
}

var upgrader = &websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type hub struct {
	// Registered connections
	connections map[*connection]bool

	// Outbound messages to the connections
	messages chan []byte

	// Register requests from the connections
	register chan *connection

	// Unregister requests from connections
	unregister chan *connection

	done chan struct{}
	once sync.Once
}

func newHub() *hub {
	return &hub{
		messages:    make(chan []byte, 64),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		connections: make(map[*connection]bool),
		done:        make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.connections[c] = true
			log.Debug("Registered new websocket connection")
		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.send)
			}
			log.Debug("Unregistered websocket connection")
		case m := <-h.messages:
			for c := range h.connections {
				select {
				case c.send <- m:
				default:
					// Slow consumer.
					delete(h.connections, c)
					close(c.send)
				}
			}
		case <-h.done:
			for c := range h.connections {
				delete(h.connections, c)
				close(c.send)
			}
			return
		}
	}
}

// broadcast queues m for every connection. It never blocks the caller
// for long; once the hub is stopped messages are dropped.
func (h *hub) broadcast(m []byte) {
	select {
	case h.messages <- m:
	case <-h.done:
	}
}

func (h *hub) stop() {
	h.once.Do(func() { close(h.done) })
}

type websocketHandler struct {
	hub *hub
}

func newWebsocketHandler(hub *hub) *websocketHandler {
	handler := websocketHandler{
		hub: hub,
	}
	return &handler
}

func (wsh websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Error upgrading websocket: %s", err)
		return
	}
	c := &connection{send: make(chan []byte, 256), ws: ws, h: wsh.hub}
	select {
	case c.h.register <- c:
	case <-c.h.done:
		ws.Close()
		return
	}
	defer func() {
		select {
		case c.h.unregister <- c:
		case <-c.h.done:
		}
	}()
	go c.writer()
	c.reader()
}
