package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bwengye/bwengye/internal/auth"
	"github.com/bwengye/bwengye/internal/metrics"
)

// userIDKey is the gin context key the auth middleware stores the resolved
// user id under.
const userIDKey = "userID"

const corsAllowedHeaders = "authorization, x-client-info, apikey, content-type"

// corsMiddleware permits all origins with the fixed allowed-headers set and
// short-circuits preflight requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", corsAllowedHeaders)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// metricsMiddleware records request counts and latency per endpoint.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RequestCount.WithLabelValues(
			c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.RequestDuration.WithLabelValues(
			c.Request.Method, endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// authMiddleware resolves the bearer token to a user id and stores it in the
// request context. Requests without a valid token never reach a handler.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := s.verifier.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				return
			}
			fmt.Fprintf(s.out, "server: resolve token: %v\n", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUser returns the user id the auth middleware resolved.
func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
