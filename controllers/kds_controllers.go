package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController accepts upgrades from any origin; the CORS policy of the
// router does not apply to websocket handshakes.
func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle -> GET /ws, streams every floor event until the client goes away
func (kc *KDSController) Handle(c *gin.Context) {
	role := middlewares.RoleGuest
	if v, ok := c.Get(middlewares.ContextRole); ok {
		if s, ok := v.(string); ok && s != "" {
			role = s
		}
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error
		utils.ErrorLogger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	kc.Hub.Serve(ws, role)
}
