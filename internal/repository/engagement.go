package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ripplr_backend/internal/model"
)

// likeRepository and shareRepository are structural twins: both persist a
// (user, post, created_at) join row whose own timestamp later drives the
// activity feed.

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `
		INSERT INTO likes (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, userID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to create like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *likeRepository) Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotLiked
	}

	return nil
}

// GetByUser returns the user's likes on live posts, newest first.
func (r *likeRepository) GetByUser(ctx context.Context, userID int64) ([]model.Like, error) {
	query := `
		SELECT l.id, l.user_id, l.post_id, l.created_at
		FROM likes l
		JOIN posts p ON p.id = l.post_id AND p.deleted_at IS NULL
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC
	`

	var likes []model.Like
	err := r.db.SelectContext(ctx, &likes, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get likes by user: %w", err)
	}

	return likes, nil
}

func (r *likeRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	return checkEngagement(ctx, r.db, "likes", userID, postIDs)
}

type shareRepository struct {
	db *sqlx.DB
}

func NewShareRepository(db *sqlx.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `
		INSERT INTO shares (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, userID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to create share: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *shareRepository) Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM shares WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotShared
	}

	return nil
}

// GetByUser returns the user's shares of live posts, newest first.
func (r *shareRepository) GetByUser(ctx context.Context, userID int64) ([]model.Share, error) {
	query := `
		SELECT s.id, s.user_id, s.post_id, s.created_at
		FROM shares s
		JOIN posts p ON p.id = s.post_id AND p.deleted_at IS NULL
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`

	var shares []model.Share
	err := r.db.SelectContext(ctx, &shares, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares by user: %w", err)
	}

	return shares, nil
}

func (r *shareRepository) CheckShares(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	return checkEngagement(ctx, r.db, "shares", userID, postIDs)
}

// checkEngagement batch-checks which of the given posts the user has a row
// for in the named join table. One ANY($2) query avoids the N+1 problem.
func checkEngagement(ctx context.Context, db *sqlx.DB, table string, userID int64, postIDs []int64) (map[int64]bool, error) {
	if len(postIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := fmt.Sprintf(`SELECT post_id FROM %s WHERE user_id = $1 AND post_id = ANY($2)`, table)
	var matchedIDs []int64
	err := db.SelectContext(ctx, &matchedIDs, query, userID, pq.Array(postIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check %s: %w", table, err)
	}

	result := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}
	for _, id := range matchedIDs {
		result[id] = true
	}

	return result, nil
}
