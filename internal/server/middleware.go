package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/rentbill/internal/observability/logger"
)

const contextActorKey = "actor"

// ActorRequired rejects mutating requests that do not name who is acting.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(obslogger.HeaderActorID))
		if actor == "" {
			AbortWithError(c, newValidationError("actor", "invalid_actor", "X-Actor-Id header is required"))
			return
		}
		c.Set(contextActorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) string {
	return c.GetString(contextActorKey)
}
