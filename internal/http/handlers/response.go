// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints: the error
// envelope, success writers and the cursor-page envelope used by the tweet
// and newsfeed timelines.
//
// Example page response:
//
//	HTTP/1.1 200 OK
//	{
//	  "has_next_page": true,
//	  "newest_at": "2024-05-01T10:00:03.000001Z",
//	  "oldest_at": "2024-05-01T09:58:41.120000Z",
//	  "results": [ ... ]
//	}
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/http/middleware"
	"github.com/tbourn/go-feed-backend/internal/pagination"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// TweetPage is one cursor page of tweets, newest first. Clients pass
// oldest_at back as older_than for the next page and newest_at as
// newer_than to refresh.
type TweetPage struct {
	HasNextPage bool           `json:"has_next_page"`
	NewestAt    *time.Time     `json:"newest_at"`
	OldestAt    *time.Time     `json:"oldest_at"`
	Results     []domain.Tweet `json:"results"`
}

// NewsFeedPage is one cursor page of newsfeed entries, newest first. Every
// entry embeds its tweet.
type NewsFeedPage struct {
	HasNextPage bool              `json:"has_next_page"`
	NewestAt    *time.Time        `json:"newest_at"`
	OldestAt    *time.Time        `json:"oldest_at"`
	Results     []domain.NewsFeed `json:"results"`
}

func tweetPage(p pagination.Page[domain.Tweet]) TweetPage {
	items := p.Items
	if items == nil {
		items = []domain.Tweet{}
	}
	return TweetPage{HasNextPage: p.HasNextPage, NewestAt: p.NewestAt(), OldestAt: p.OldestAt(), Results: items}
}

func newsFeedPage(p pagination.Page[domain.NewsFeed]) NewsFeedPage {
	items := p.Items
	if items == nil {
		items = []domain.NewsFeed{}
	}
	return NewsFeedPage{HasNextPage: p.HasNextPage, NewestAt: p.NewestAt(), OldestAt: p.OldestAt(), Results: items}
}
