// Package domain defines the persistence models for tweets, the follower
// graph, and newsfeed (timeline) entries. These types are mapped with GORM and
// form the core data layer of the feed service.
package domain

import "time"

// Tweet is a piece of published content. Newsfeed entries reference it by ID
// and never copy its mutable fields into the timeline store.
//
// Fields:
//   - ID: autoincrement primary key.
//   - UserID: author identifier; indexed together with CreatedAt so a user's
//     own tweets can be range-queried newest first.
//   - Content: normalized text body.
//   - CreatedAt: UTC, microsecond precision, immutable.
type Tweet struct {
	ID        uint64    `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_tweets,priority:1"`
	Content   string    `json:"content"    gorm:"type:varchar(1024);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index:idx_user_tweets,priority:2"`
}

// TableName returns the database table name for Tweet.
func (Tweet) TableName() string { return "tweets" }

// Timestamp implements pagination.Timestamped.
func (t Tweet) Timestamp() time.Time { return t.CreatedAt }

// Friendship is a directed follow edge: FromUserID follows ToUserID.
// A given pair can exist at most once (unique index).
type Friendship struct {
	ID         uint64    `json:"id"           gorm:"primaryKey;autoIncrement"`
	FromUserID string    `json:"from_user_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_friendship_pair,priority:1;index:idx_from_user"`
	ToUserID   string    `json:"to_user_id"   gorm:"type:varchar(64);not null;uniqueIndex:ux_friendship_pair,priority:2;index:idx_to_user"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Friendship.
func (Friendship) TableName() string { return "friendships" }

// NewsFeed is one appearance of a tweet on one user's timeline. Rows are
// written only by the fanout engine, in bulk, and are never updated.
//
// Fields:
//   - ID: autoincrement primary key; monotonic, used as ordering tiebreaker.
//   - UserID: owner of the timeline.
//   - TweetID: the referenced content item.
//   - CreatedAt: set once by the fanout job that wrote the row.
//   - Tweet: preloaded on reads and embedded in cache snapshots.
//
// The (user_id, tweet_id) pair is unique so re-running a fanout job for the
// same tweet cannot duplicate rows.
type NewsFeed struct {
	ID        uint64    `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_feed,priority:1;uniqueIndex:ux_feed_user_tweet,priority:1"`
	TweetID   uint64    `json:"tweet_id"   gorm:"not null;uniqueIndex:ux_feed_user_tweet,priority:2"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index:idx_user_feed,priority:2"`

	Tweet *Tweet `json:"tweet,omitempty" gorm:"foreignKey:TweetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for NewsFeed.
func (NewsFeed) TableName() string { return "newsfeeds" }

// Timestamp implements pagination.Timestamped.
func (n NewsFeed) Timestamp() time.Time { return n.CreatedAt }
