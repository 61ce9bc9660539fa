package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/tuannda91/courtbook/internal/notify"
)

func newWSServer(t *testing.T) (*notify.Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := notify.NewHub()
	router := gin.New()
	NewWSHandler(hub).Register(router.Group("/"))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg serverMessage
	assert.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWSHandler_SubscribeReceivesStatusUpdate(t *testing.T) {
	hub, conn := newWSServer(t)

	assert.Equal(t, "connected", readMessage(t, conn).Type)

	assert.NoError(t, conn.WriteJSON(clientMessage{Action: "subscribe", PaymentID: 7}))
	sub := readMessage(t, conn)
	assert.Equal(t, "subscribed", sub.Type)
	assert.Equal(t, int64(7), sub.PaymentID)

	hub.Publish(7, notify.Event{Type: "payment_status", PaymentID: 7, Status: "SUCCESS", BookingID: 42})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event notify.Event
	assert.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "SUCCESS", event.Status)
	assert.Equal(t, int64(42), event.BookingID)
}

func TestWSHandler_Ping(t *testing.T) {
	_, conn := newWSServer(t)

	assert.Equal(t, "connected", readMessage(t, conn).Type)

	assert.NoError(t, conn.WriteJSON(clientMessage{Action: "ping"}))
	assert.Equal(t, "pong", readMessage(t, conn).Type)
}

func TestWSHandler_SubscribeRequiresPaymentID(t *testing.T) {
	_, conn := newWSServer(t)

	assert.Equal(t, "connected", readMessage(t, conn).Type)

	assert.NoError(t, conn.WriteJSON(clientMessage{Action: "subscribe"}))
	assert.Equal(t, "error", readMessage(t, conn).Type)
}

func TestWSHandler_CloseDropsSubscriptions(t *testing.T) {
	hub, conn := newWSServer(t)

	assert.Equal(t, "connected", readMessage(t, conn).Type)

	assert.NoError(t, conn.WriteJSON(clientMessage{Action: "subscribe", PaymentID: 7}))
	assert.Equal(t, "subscribed", readMessage(t, conn).Type)
	assert.Equal(t, 1, hub.SubscriberCount(7))

	conn.Close()

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(7) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
