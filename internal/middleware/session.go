// session.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	sessionKey    = "sessionID"
)

// Session toma el id de sesión del header; si no viene genera uno.
// El id se guarda en el contexto y se devuelve en la respuesta para que el
// cliente lo reutilice.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(sessionKey, id)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

// SessionID devuelve el id guardado por Session.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
