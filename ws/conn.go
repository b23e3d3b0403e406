package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/earth2-mcp/gateway/codec"
	"github.com/earth2-mcp/gateway/dispatch"
	"github.com/earth2-mcp/gateway/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendQueueSize  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway sits on an internal network; origin checks stay open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests and serves JSON-RPC over each socket. Every
// text frame carries one complete envelope; requests on one connection run
// concurrently and responses are correlated by id, not by arrival order.
type Handler struct {
	dispatcher *dispatch.Dispatcher
}

func NewHandler(d *dispatch.Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	c := &conn{
		id:         uuid.NewString(),
		ws:         socket,
		send:       make(chan []byte, sendQueueSize),
		session:    session.New(context.Background()),
		dispatcher: h.dispatcher,
	}
	log.WithFields(log.Fields{"conn": c.id, "remote": socket.RemoteAddr().String()}).Info("websocket connected")
	go c.writePump()
	go c.readPump()
}

// conn is one client connection. The readPump goroutine owns reads, the
// writePump goroutine owns writes; request goroutines hand frames to the
// writer through the send channel.
type conn struct {
	id         string
	ws         *websocket.Conn
	send       chan []byte
	session    *session.Session
	dispatcher *dispatch.Dispatcher
}

func (c *conn) readPump() {
	defer func() {
		c.session.Close()
		c.ws.Close()
		log.WithField("conn", c.id).Debug("websocket closed")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithFields(log.Fields{"conn": c.id, "error": err}).Warn("websocket read error")
			}
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		c.serveFrame(frame)
	}
}

// serveFrame decodes one frame and runs the request in its own goroutine, so
// a slow tool call never blocks later frames. Decode failures are answered
// inline; notifications never produce a frame.
func (c *conn) serveFrame(frame []byte) {
	req, errResp := codec.DecodeRequest(frame)
	if errResp != nil {
		c.reply(errResp)
		return
	}

	ctx, done, err := c.session.Begin(req.ID)
	if err != nil {
		if errors.Is(err, session.ErrDuplicateID) {
			c.reply(codec.NewErrorResponse(req.ID, codec.NewInvalidRequest("duplicate request id")))
		}
		return
	}

	go func() {
		defer done()
		defer func() {
			// A panicking request must not take the process down; the chi
			// Recoverer covers the HTTP path, this covers the socket path.
			if r := recover(); r != nil {
				log.WithFields(log.Fields{"conn": c.id, "panic": r}).Error("websocket request panicked")
				if !req.IsNotification() {
					c.reply(codec.NewErrorResponse(req.ID, codec.NewInternalError("internal server error")))
				}
			}
		}()
		if resp := c.dispatcher.Dispatch(ctx, req); resp != nil {
			c.reply(resp)
		}
	}()
}

func (c *conn) reply(resp *codec.JSONRPCResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal websocket response: %v", err)
		return
	}
	select {
	case c.send <- payload:
	case <-c.session.Done():
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.WithFields(log.Fields{"conn": c.id, "error": err}).Debug("websocket write failed")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.session.Done():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
