package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller's opaque user identifier. Authentication is
// out of scope; an upstream gateway is expected to set it.
const HeaderUserID = "X-User-ID"

// ctxKeyUserID is the Gin context key holding the validated user ID.
const ctxKeyUserID = "userID"

// maxUserIDLen matches the varchar(64) user columns.
const maxUserIDLen = 64

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:@]+$`)

// Identity reads X-User-ID, validates it and stores it in the Gin context.
// A missing header leaves the request anonymous; a malformed one is rejected
// with 400.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			c.Next()
			return
		}
		if len(uid) > maxUserIDLen || !userIDPattern.MatchString(uid) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_user_id",
				"message":    "invalid X-User-ID header",
			})
			return
		}
		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

// UserIDFrom returns the user ID stored by Identity, or "" for anonymous
// requests.
func UserIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
