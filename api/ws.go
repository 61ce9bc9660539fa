package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tuannda91/courtbook/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// guests pay from a hosted checkout page on another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub *notify.Hub
}

// clientMessage is the inbound protocol: subscribe / unsubscribe / ping.
type clientMessage struct {
	Action    string `json:"action"`
	PaymentID int64  `json:"paymentId"`
}

type serverMessage struct {
	Type      string `json:"type"`
	PaymentID int64  `json:"paymentId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(event interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

func NewWSHandler(hub *notify.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) Register(router *gin.RouterGroup) {
	router.GET("/ws", h.serve)
}

func (h *WSHandler) serve(c *gin.Context) {
	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Printf("ws upgrade: %v", err)
		return
	}

	conn := &wsConn{conn: raw}
	defer func() {
		// dropping a connection only stops its updates; the payment keeps
		// running and its outcome is still queryable over REST
		h.hub.Drop(conn)
		raw.Close()
	}()

	if err := conn.Send(serverMessage{Type: "connected"}); err != nil {
		return
	}

	for {
		var msg clientMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read: %v", err)
			}
			return
		}

		switch msg.Action {
		case "subscribe":
			if msg.PaymentID <= 0 {
				conn.Send(serverMessage{Type: "error", Message: "paymentId is required"})
				continue
			}
			h.hub.Subscribe(msg.PaymentID, conn)
			conn.Send(serverMessage{Type: "subscribed", PaymentID: msg.PaymentID})
		case "unsubscribe":
			h.hub.Unsubscribe(msg.PaymentID, conn)
			conn.Send(serverMessage{Type: "unsubscribed", PaymentID: msg.PaymentID})
		case "ping":
			conn.Send(serverMessage{Type: "pong"})
		default:
			conn.Send(serverMessage{Type: "error", Message: "unknown action"})
		}
	}
}
