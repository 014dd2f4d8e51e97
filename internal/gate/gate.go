// Package gate guards the upload surface with the shared credential from the
// environment. It is a delegation point, not an account system: one static
// "user:pass" pair, checked with basic auth.
package gate

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests whose basic-auth credentials do not match
// expected ("user:pass"). An empty expected fails closed: uploads stay
// locked until the credential is configured.
func Middleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "uploads are locked (missing server config)"})
			c.Abort()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}

		got := user + ":" + pass
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			unauthorized(c)
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="upload", charset="UTF-8"`)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	c.Abort()
}

// Credential splits a configured "user:pass" pair for clients.
func Credential(v string) (user, pass string, ok bool) {
	user, pass, ok = strings.Cut(v, ":")
	return user, pass, ok && user != ""
}
