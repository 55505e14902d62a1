package handlers

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"health-monitor/logging"
	"health-monitor/middlewares"
	"health-monitor/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const pongWait = 60 * time.Second

// WSHandler streams live reading updates to dashboards.
type WSHandler struct {
	mgr      *ws.Manager
	upgrader websocket.Upgrader
	origins  []string
}

// NewWSHandler accepts same-origin upgrades plus the listed origins. A "*"
// entry is ignored: the socket is authenticated by cookie.
func NewWSHandler(mgr *ws.Manager, allowedOrigins []string) *WSHandler {
	h := &WSHandler{mgr: mgr}
	for _, o := range allowedOrigins {
		if o != "*" {
			h.origins = append(h.origins, strings.TrimRight(o, "/"))
		}
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.Contains(h.origins, strings.TrimRight(origin, "/"))
}

// HandleLiveWS upgrades an authenticated request and keeps the connection
// registered until the client goes away.
// GET /ws
func (h *WSHandler) HandleLiveWS(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn().Err(err).Str("origin", c.GetHeader("Origin")).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(userID, conn)
	h.mgr.Register(client)
	log := logging.With().Uint("user_id", userID).Str("client", client.ID).Logger()
	log.Info().Msg("dashboard connected")

	defer func() {
		h.mgr.Unregister(client)
		log.Info().Msg("dashboard disconnected")
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only listen; reading drives close and pong handling.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
