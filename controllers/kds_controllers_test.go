package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/models"
)

func TestKDSHandleStreamsEvents(t *testing.T) {
	hub := kds.NewHub(8)
	defer hub.Close()

	r := gin.New()
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(testSecret), NewKDSController(hub).Handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token(t, models.RoleChef)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(kds.EventTableUpdated, map[string]int{"number": 4})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, kds.EventTableUpdated, msg.Event)
	assert.Equal(t, 4, msg.Data["number"])
}

func TestKDSHandleRejectsBadToken(t *testing.T) {
	hub := kds.NewHub(8)
	r := gin.New()
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(testSecret), NewKDSController(hub).Handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 0, hub.Count())
}
