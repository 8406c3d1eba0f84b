// Package services – FriendshipService
//
// FriendshipService manages the follower graph and doubles as the fanout
// engine's follower directory.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/repo"
)

// FriendshipService follows, unfollows and lists follow edges.
type FriendshipService struct {
	DB *gorm.DB
}

// NewFriendshipService constructs a FriendshipService.
func NewFriendshipService(db *gorm.DB) *FriendshipService {
	return &FriendshipService{DB: db}
}

// Follow makes userID a follower of targetID. Following an already followed
// user succeeds without changes; created reports whether an edge was added.
func (s *FriendshipService) Follow(ctx context.Context, userID, targetID string) (created bool, err error) {
	ctx, span := observability.Tracer("services/FriendshipService").Start(ctx, "Follow",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("target.id", targetID)),
	)
	defer span.End()

	if err := validPair(userID, targetID); err != nil {
		return false, err
	}
	if userID == targetID {
		return false, ErrSelfFollow
	}
	return repo.CreateFriendship(ctx, s.DB, userID, targetID)
}

// Unfollow removes the userID -> targetID edge. Removing a missing edge is
// not an error; removed reports whether an edge existed.
func (s *FriendshipService) Unfollow(ctx context.Context, userID, targetID string) (removed bool, err error) {
	ctx, span := observability.Tracer("services/FriendshipService").Start(ctx, "Unfollow",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("target.id", targetID)),
	)
	defer span.End()

	if err := validPair(userID, targetID); err != nil {
		return false, err
	}
	if userID == targetID {
		return false, ErrSelfUnfollow
	}
	return repo.DeleteFriendship(ctx, s.DB, userID, targetID)
}

// ListFollowers returns a page of users following userID and the total.
func (s *FriendshipService) ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]domain.Friendship, int64, error) {
	ctx, span := observability.Tracer("services/FriendshipService").Start(ctx, "ListFollowers",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	return listPage(ctx, s.DB, userID, page, pageSize, repo.CountFollowers, repo.ListFollowersPage)
}

// ListFollowings returns a page of users userID follows and the total.
func (s *FriendshipService) ListFollowings(ctx context.Context, userID string, page, pageSize int) ([]domain.Friendship, int64, error) {
	ctx, span := observability.Tracer("services/FriendshipService").Start(ctx, "ListFollowings",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	return listPage(ctx, s.DB, userID, page, pageSize, repo.CountFollowings, repo.ListFollowingsPage)
}

// FollowerIDs implements fanout.FollowerDirectory.
func (s *FriendshipService) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return repo.FollowerIDs(ctx, s.DB, userID)
}

func listPage(
	ctx context.Context,
	db *gorm.DB,
	userID string,
	page, pageSize int,
	count func(context.Context, *gorm.DB, string) (int64, error),
	list func(context.Context, *gorm.DB, string, int, int) ([]domain.Friendship, error),
) ([]domain.Friendship, int64, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, 0, ErrInvalidUser
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := count(ctx, db, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Friendship{}, 0, nil
	}
	items, err := list(ctx, db, userID, offset, pageSize)
	return items, total, err
}

func validPair(userID, targetID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(targetID) == "" {
		return ErrInvalidUser
	}
	return nil
}
