package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// BasicAuth guards the API with a single administrative credential pair.
// Comparison is constant-time so the check leaks nothing about either field.
func BasicAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

		if !ok || !userOK || !passOK {
			log.WithField("username", user).Warn("failed authentication attempt")
			c.Header("WWW-Authenticate", `Basic realm="model-registry"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
			return
		}

		c.Next()
	}
}
