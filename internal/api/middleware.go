package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"protaskinate/internal/recurrence"
)

const (
	userIDKey = "userID"
	// TimeZoneHeader carries the caller's IANA time zone.
	TimeZoneHeader = "X-Time-Zone"
)

// requireUser accepts a bearer token in the Authorization header, or in the
// access_token query parameter for clients such as EventSource that cannot
// set headers.
func (s *Server) requireUser(c *gin.Context) {
	token := strings.TrimSpace(c.Query("access_token"))
	if header := c.GetHeader("Authorization"); header != "" {
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// zone returns the caller's time zone name and location. Unknown or missing
// zones fall back to the server's zone.
func (s *Server) zone(c *gin.Context) (string, *time.Location) {
	name := strings.TrimSpace(c.GetHeader(TimeZoneHeader))
	if name == "" {
		name = strings.TrimSpace(c.Query("tz"))
	}
	if loc, ok := recurrence.Location(name); ok {
		return name, loc
	}
	return s.fallbackZone, s.fallbackLoc
}

// clock returns the current instant in the caller's time zone.
func (s *Server) clock(c *gin.Context) time.Time {
	_, loc := s.zone(c)
	return s.now().In(loc)
}
