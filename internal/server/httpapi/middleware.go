package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// JWT accepts "Authorization: Bearer <token>" and stores the user id for
// handlers. Requests without a valid token stop with 401.
func JWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")
		if !strings.HasPrefix(bearer, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimPrefix(bearer, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(callerKey, userID)
		c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "caller", userID))
		c.Next()
	}
}

func caller(c *gin.Context) string {
	return c.GetString(callerKey)
}
