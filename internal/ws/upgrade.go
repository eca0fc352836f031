package ws

import (
	"net/http"
	"time"

	"trxearn/config"
	"trxearn/internal/auth"
	"trxearn/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UpgradeAdminFeed upgrades an admin connection authenticated by the token query parameter.
func UpgradeAdminFeed(cfg *config.JWTConfig, feed *AdminFeed) gin.HandlerFunc {
	return serve(cfg, feed.Hub, func(claims *auth.Claims) string {
		if claims.Role != domain.RoleAdmin {
			return "admin access required"
		}
		return ""
	})
}

// UpgradeAccountFeed upgrades a user connection that receives only its own account's events.
func UpgradeAccountFeed(cfg *config.JWTConfig, feed *AccountFeed) gin.HandlerFunc {
	return serve(cfg, feed.Hub, func(claims *auth.Claims) string {
		if claims.Role == domain.RoleAdmin {
			return "user access required"
		}
		return ""
	})
}

// serve authenticates the token query parameter; deny returns a non-empty reason to refuse the claims.
func serve(cfg *config.JWTConfig, hub *Hub, deny func(*auth.Claims) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		token := c.Query("token")
		if token == "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"token required"}`))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			return
		}
		if reason := deny(claims); reason != "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+reason+`"}`))
			return
		}
		client := NewClient(claims.AccountID(), claims.Role)
		hub.Register(client)
		defer client.Close()
		client.Send <- []byte(`{"type":"connected"}`)
		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn) {
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
