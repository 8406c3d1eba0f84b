// Newsfeed HTTP handlers.
//
// This file exposes the caller's home timeline:
//   - GET /newsfeeds        (cursor paginated, entries embed their tweet)
//   - GET /newsfeeds/stats  (entry count and newest entry time)
//   - DELETE /newsfeeds/cache (drop the cached timeline; next read rebuilds)
//
// All endpoints are private to the caller; the router marks them
// Cache-Control: private.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListNewsFeed godoc
// @ID          listNewsFeed
// @Summary     Read the home timeline (cursor paginated)
// @Description Returns the newest page of the caller's newsfeed. Pass oldest_at back as older_than to scroll,
// @Description or newest_at as newer_than to pull everything that arrived since. The two cursors are mutually exclusive.
// @Tags        Newsfeeds
// @Produce     json
//
// @Param       X-User-ID   header string  true   "User ID"             example(user123)
// @Param       newer_than  query  string  false  "RFC 3339 timestamp"  format(date-time)
// @Param       older_than  query  string  false  "RFC 3339 timestamp"  format(date-time)
// @Param       page_size   query  int     false  "Items per page"      minimum(1)
//
// @Success     200  {object}  handlers.NewsFeedPage
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid cursor"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /newsfeeds [get]
func (h *Handlers) ListNewsFeed(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	cur, size, err := cursorFrom(c)
	if err != nil {
		failErr(c, err, ErrCodeBadRequest)
		return
	}
	page, err := h.feedSvc.List(c.Request.Context(), uid, cur, size)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, newsFeedPage(page))
}

// NewsFeedStats godoc
// @ID          newsFeedStats
// @Summary     Home timeline statistics
// @Description Returns the number of entries and the newest entry time. Supports weak ETag via If-None-Match.
// @Tags        Newsfeeds
// @Produce     json
//
// @Param       X-User-ID      header  string  true   "User ID"                     example(user123)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"feed:user123:42:1714557603\")
//
// @Success     200  {object}  services.FeedStats
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /newsfeeds/stats [get]
func (h *Handlers) NewsFeedStats(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	st, err := h.feedSvc.Stats(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}

	var ts int64
	if st.NewestAt != nil {
		ts = st.NewestAt.UnixMicro()
	}
	etag := fmt.Sprintf(`W/"feed:%s:%d:%d"`, uid, st.Count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	ok(c, http.StatusOK, st)
}

// InvalidateNewsFeedCache godoc
// @ID          invalidateNewsFeedCache
// @Summary     Drop the cached home timeline
// @Description Removes the caller's recency cache list. The next read rebuilds it from the timeline store.
// @Tags        Newsfeeds
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
//
// @Success     204  "Cache dropped"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /newsfeeds/cache [delete]
func (h *Handlers) InvalidateNewsFeedCache(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	if err := h.feedSvc.Invalidate(c.Request.Context(), uid); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
