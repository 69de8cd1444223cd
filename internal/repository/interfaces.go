package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"ripplr_backend/internal/cache"
	"ripplr_backend/internal/model"
)

type UserRepository interface {
	// Create inserts the user relying on the unique indexes on username and
	// email; duplicates surface as model.ErrUsernameExists / ErrEmailExists.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update persists the mutable profile fields; model.ErrNoRowsAffected
	// when the row vanished between resolve and write.
	Update(ctx context.Context, user *model.User) error
	// Delete removes the row outright (hard delete, cascades in the schema).
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, content string, imageURL *string) (*model.Post, error)
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	Delete(ctx context.Context, postID, userID int64) error
	// GetAuthoredByUser returns every live post by the user, newest first.
	// Feeds the POSTED leg of the activity aggregation.
	GetAuthoredByUser(ctx context.Context, userID int64) ([]model.Post, error)
	GetUserPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, *time.Time, error)
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	GetFeedPostIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error)
	GetAuthorID(ctx context.Context, postID int64) (int64, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	IncrementShareCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
}

type LikeRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error
	// GetByUser returns the user's like rows, the LIKED leg of the activity
	// aggregation. Each row keeps its own created_at.
	GetByUser(ctx context.Context, userID int64) ([]model.Like, error)
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
}

type ShareRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error
	// GetByUser returns the user's share rows, the SHARED leg of the activity
	// aggregation.
	GetByUser(ctx context.Context, userID int64) ([]model.Share, error)
	CheckShares(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
}

type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, userID, actorID int64, notifType string, postID *int64) error
	GetByUser(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
}
