// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the follower
// graph (Friendship model).
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-feed-backend/internal/domain"
)

// CreateFriendship records that from follows to. It reports created=false,
// with no error, when the edge already exists.
func CreateFriendship(ctx context.Context, db *gorm.DB, from, to string) (created bool, err error) {
	f := &domain.Friendship{
		FromUserID: from,
		ToUserID:   to,
		CreatedAt:  Now(),
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(f)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteFriendship removes the edge from -> to. It reports whether a row was
// deleted.
func DeleteFriendship(ctx context.Context, db *gorm.DB, from, to string) (bool, error) {
	res := db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", from, to).
		Delete(&domain.Friendship{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FollowerIDs returns the IDs of every user following userID, unordered.
func FollowerIDs(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	ids := make([]string, 0)
	err := db.WithContext(ctx).
		Model(&domain.Friendship{}).
		Where("to_user_id = ?", userID).
		Pluck("from_user_id", &ids).Error
	return ids, err
}

// ListFollowersPage returns edges pointing at userID, newest first.
func ListFollowersPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Friendship, error) {
	out := make([]domain.Friendship, 0)
	err := db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountFollowers returns the number of users following userID.
func CountFollowers(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Friendship{}).
		Where("to_user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListFollowingsPage returns edges starting at userID, newest first.
func ListFollowingsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Friendship, error) {
	out := make([]domain.Friendship, 0)
	err := db.WithContext(ctx).
		Where("from_user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountFollowings returns the number of users userID follows.
func CountFollowings(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Friendship{}).
		Where("from_user_id = ?", userID).
		Count(&total).Error
	return total, err
}
