// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy next to the human-readable message. Generic codes mirror HTTP
// status semantics; domain codes name failures status alone cannot convey.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_cursor",
//	  "message": "newer_than and older_than are mutually exclusive"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feed-backend/internal/pagination"
	"github.com/tbourn/go-feed-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidCursor = "invalid_cursor"
	ErrCodeCreateFailed  = "create_failed"
	ErrCodeListFailed    = "list_failed"
	ErrCodeFollowFailed  = "follow_failed"
)

// failErr maps service and pagination errors onto the error envelope.
// Unknown errors become 500 with fallbackCode.
func failErr(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, pagination.ErrInvalidCursor):
		fail(c, http.StatusBadRequest, ErrCodeInvalidCursor, err.Error())
	case errors.Is(err, services.ErrTweetNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "tweet not found")
	case errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrContentTooLong),
		errors.Is(err, services.ErrInvalidUser),
		errors.Is(err, services.ErrSelfFollow),
		errors.Is(err, services.ErrSelfUnfollow):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
