// Tweet HTTP handlers.
//
// This file exposes REST endpoints for tweets:
//   - POST   /tweets        (publish; schedules fanout to followers)
//   - GET    /tweets/{id}   (fetch one)
//   - GET    /tweets        (a user's own timeline, cursor paginated)
//
// Idempotency:
// If the client supplies an Idempotency-Key header, the key is reserved for
// (user, scope) before the tweet is created. A retry after completion gets
// the recorded tweet with the recorded status and `Idempotency-Replayed:
// true`; a retry while the first request is still running gets 409. A failed
// create releases the key.
package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/http/middleware"
	"github.com/tbourn/go-feed-backend/internal/utils"
)

// CreateTweetRequest is the JSON payload for publishing a tweet.
type CreateTweetRequest struct {
	// Content is the tweet body (1–255 runes after normalization).
	Content string `json:"content" binding:"required" example:"shipping the new feed today"`
}

// tweetScope is the idempotency scope used when the validator did not set one.
const tweetScope = "tweets"

var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent converts CRLF/CR to LF, collapses runs of 3+ LFs to two and
// trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CreateTweet godoc
// @ID          createTweet
// @Summary     Publish a tweet
// @Description Persists a tweet for the current user and schedules its fanout to every follower's newsfeed.
// @Description Supports idempotency via the Idempotency-Key header (same key → same tweet).
// @Tags        Tweets
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true   "User ID"  example(user123)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateTweetRequest  true  "Tweet payload"
//
// @Success     201  {object}  domain.Tweet
// @Header      201  {string}  Idempotency-Replayed  "true when the response is a replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     409  {object}  handlers.ErrorResponse  "Same Idempotency-Key still in progress"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /tweets [post]
func (h *Handlers) CreateTweet(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req CreateTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ctx := c.Request.Context()

	// Idempotency: reserve the key or answer from the existing record.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if scope == "" {
		scope = tweetScope
	}
	var reservation *domain.Idempotency
	if idemKey != "" && h.idem != nil {
		rec, reserved, err := h.idem.Reserve(ctx, uid, scope, idemKey)
		switch {
		case err != nil:
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency reserve failed")
		case !reserved:
			h.replayTweet(c, rec)
			return
		default:
			reservation = rec
		}
	}

	t, err := h.tweetSvc.Create(ctx, uid, sanitizeContent(req.Content))
	if err != nil {
		if reservation != nil {
			if rerr := h.idem.Release(ctx, reservation); rerr != nil {
				middleware.LoggerFrom(c).Warn().Err(rerr).Msg("idempotency release failed")
			}
		}
		failErr(c, err, ErrCodeCreateFailed)
		return
	}

	if reservation != nil {
		if err := h.idem.Complete(ctx, reservation, strconv.FormatUint(t.ID, 10), http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency complete failed")
		}
	}
	ok(c, http.StatusCreated, t)
}

// replayTweet answers a request whose Idempotency-Key is already held.
func (h *Handlers) replayTweet(c *gin.Context, rec *domain.Idempotency) {
	if rec.Pending() {
		fail(c, http.StatusConflict, ErrCodeConflict, "a request with this Idempotency-Key is still in progress")
		return
	}
	id, okID := utils.ParseID(rec.ResourceID)
	if !okID {
		fail(c, http.StatusConflict, ErrCodeConflict, "Idempotency-Key already used")
		return
	}
	prev, err := h.tweetSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	c.Header("Idempotency-Replayed", "true")
	ok(c, rec.Status, prev)
}

// GetTweet godoc
// @ID          getTweet
// @Summary     Fetch a tweet
// @Tags        Tweets
// @Produce     json
//
// @Param       id  path  int  true  "Tweet ID"  minimum(1)
//
// @Success     200  {object}  domain.Tweet
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Tweet not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /tweets/{id} [get]
func (h *Handlers) GetTweet(c *gin.Context) {
	id, okID := utils.ParseID(c.Param("id"))
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tweet id must be a positive integer")
		return
	}
	t, err := h.tweetSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, t)
}

// ListTweets godoc
// @ID          listTweets
// @Summary     List a user's tweets (cursor paginated)
// @Description Returns the newest page of the user's own tweets. Pass oldest_at back as older_than to scroll,
// @Description or newest_at as newer_than to fetch everything published since. The two cursors are mutually exclusive.
// @Tags        Tweets
// @Produce     json
//
// @Param       user_id     query  string  false  "Author; defaults to the caller"  example(user123)
// @Param       X-User-ID   header string  false  "User ID"                         example(user123)
// @Param       newer_than  query  string  false  "RFC 3339 timestamp"              format(date-time)
// @Param       older_than  query  string  false  "RFC 3339 timestamp"              format(date-time)
// @Param       page_size   query  int     false  "Items per page"                  minimum(1)
//
// @Success     200  {object}  handlers.TweetPage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or invalid cursor"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /tweets [get]
func (h *Handlers) ListTweets(c *gin.Context) {
	author := strings.TrimSpace(c.Query("user_id"))
	if author == "" {
		author = userID(c)
	}
	if author == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id required")
		return
	}
	cur, size, err := cursorFrom(c)
	if err != nil {
		failErr(c, err, ErrCodeBadRequest)
		return
	}
	page, err := h.tweetSvc.ListByUser(c.Request.Context(), author, cur, size)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, tweetPage(page))
}
