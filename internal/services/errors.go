// Package services defines the business logic for tweets, newsfeeds and the
// follower graph. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Tweet-related errors.
var (
	// ErrTweetNotFound indicates that the requested tweet does not exist.
	ErrTweetNotFound = errors.New("tweet not found")

	// ErrEmptyContent is returned when a tweet body is blank after
	// normalization.
	ErrEmptyContent = errors.New("content is empty")

	// ErrContentTooLong is returned when a tweet body exceeds the configured
	// rune limit.
	ErrContentTooLong = errors.New("content too long")
)

// Friendship-related errors.
var (
	// ErrSelfFollow is returned when a user attempts to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrSelfUnfollow is returned when a user attempts to unfollow themselves.
	ErrSelfUnfollow = errors.New("cannot unfollow yourself")

	// ErrInvalidUser is returned when a user identifier is blank.
	ErrInvalidUser = errors.New("user id is required")
)
