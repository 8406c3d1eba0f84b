// Friendship HTTP handlers.
//
// This file exposes the follow graph:
//   - POST /friendships/{id}/follow      (caller follows id)
//   - POST /friendships/{id}/unfollow    (caller stops following id)
//   - GET  /friendships/{id}/followers   (who follows id, paginated)
//   - GET  /friendships/{id}/followings  (whom id follows, paginated)
//
// Following only affects tweets published afterwards; existing tweets are
// not backfilled into the follower's newsfeed.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feed-backend/internal/domain"
)

// FollowResponse reports the state of the edge after a follow or unfollow.
type FollowResponse struct {
	FromUserID string `json:"from_user_id" example:"user123"`
	ToUserID   string `json:"to_user_id"   example:"user456"`
	Following  bool   `json:"following"`
	// Changed is false when the request was a no-op (already followed or
	// not following).
	Changed bool `json:"changed"`
}

// ListFriendshipsResponse wraps a page of friendship edges.
type ListFriendshipsResponse struct {
	Friendships []domain.Friendship `json:"friendships"`
	Pagination  Pagination          `json:"pagination"`
}

// Follow godoc
// @ID          follow
// @Summary     Follow a user
// @Description Creates the edge caller → id. Repeating the call is a no-op that returns 200.
// @Tags        Friendships
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"         example(user123)
// @Param       id         path    string  true  "User to follow"  example(user456)
//
// @Success     201  {object}  handlers.FollowResponse  "Edge created"
// @Success     200  {object}  handlers.FollowResponse  "Already following"
// @Failure     400  {object}  handlers.ErrorResponse   "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse   "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse   "Internal error"
// @Router      /friendships/{id}/follow [post]
func (h *Handlers) Follow(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	target := strings.TrimSpace(c.Param("id"))
	created, err := h.friendSvc.Follow(c.Request.Context(), uid, target)
	if err != nil {
		failErr(c, err, ErrCodeFollowFailed)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, FollowResponse{FromUserID: uid, ToUserID: target, Following: true, Changed: created})
}

// Unfollow godoc
// @ID          unfollow
// @Summary     Unfollow a user
// @Description Removes the edge caller → id. Unfollowing someone not followed is a no-op.
// @Tags        Friendships
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"           example(user123)
// @Param       id         path    string  true  "User to unfollow"  example(user456)
//
// @Success     200  {object}  handlers.FollowResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /friendships/{id}/unfollow [post]
func (h *Handlers) Unfollow(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	target := strings.TrimSpace(c.Param("id"))
	removed, err := h.friendSvc.Unfollow(c.Request.Context(), uid, target)
	if err != nil {
		failErr(c, err, ErrCodeFollowFailed)
		return
	}
	ok(c, http.StatusOK, FollowResponse{FromUserID: uid, ToUserID: target, Following: false, Changed: removed})
}

// ListFollowers godoc
// @ID          listFollowers
// @Summary     List followers (paginated)
// @Tags        Friendships
// @Produce     json
//
// @Param       id         path   string  true   "User ID"         example(user456)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListFriendshipsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /friendships/{id}/followers [get]
func (h *Handlers) ListFollowers(c *gin.Context) {
	h.listFriendships(c, h.friendSvc.ListFollowers)
}

// ListFollowings godoc
// @ID          listFollowings
// @Summary     List followed users (paginated)
// @Tags        Friendships
// @Produce     json
//
// @Param       id         path   string  true   "User ID"         example(user123)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListFriendshipsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /friendships/{id}/followings [get]
func (h *Handlers) ListFollowings(c *gin.Context) {
	h.listFriendships(c, h.friendSvc.ListFollowings)
}

func (h *Handlers) listFriendships(
	c *gin.Context,
	list func(ctx context.Context, userID string, page, pageSize int) ([]domain.Friendship, int64, error),
) {
	page, pageSize := clampPagination(c)
	items, total, err := list(c.Request.Context(), strings.TrimSpace(c.Param("id")), page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Friendship{}
	}
	ok(c, http.StatusOK, ListFriendshipsResponse{
		Friendships: items,
		Pagination:  newPagination(page, pageSize, total),
	})
}
