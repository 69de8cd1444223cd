package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ripplr_backend/internal/cache"
	"ripplr_backend/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, content, image_url, like_count, share_count, created_at, updated_at`

// Create inserts a new post and bumps the author's post counter in one transaction.
func (r *postRepository) Create(ctx context.Context, userID int64, content string, imageURL *string) (*model.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var post model.Post
	query := `
		INSERT INTO posts (user_id, content, image_url)
		VALUES ($1, $2, $3)
		RETURNING ` + postColumns + `
	`
	err = tx.GetContext(ctx, &post, query, userID, content, imageURL)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET post_count = post_count + 1 WHERE id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("increment post count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &post, nil
}

// GetByID retrieves a single live post.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND deleted_at IS NULL`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

// GetByIDs fetches multiple posts preserving the order of the input IDs.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ANY($1) AND deleted_at IS NULL`

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	byID := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	ordered := make([]model.Post, 0, len(posts))
	for _, id := range postIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// Delete soft-deletes a post after verifying ownership, and decrements the
// author's post counter.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE posts SET deleted_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish "not found" from "not yours"
		var exists bool
		err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)`, postID)
		if err != nil {
			return fmt.Errorf("check post exists: %w", err)
		}
		if exists {
			return model.ErrNotPostOwner
		}
		return model.ErrPostNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET post_count = post_count - 1 WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("decrement post count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetAuthoredByUser returns all live posts authored by the user, newest first.
func (r *postRepository) GetAuthoredByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get authored posts: %w", err)
	}

	return posts, nil
}

// GetUserPosts returns a user's posts with created_at cursor pagination.
// Fetches limit+1 rows to detect whether more results exist.
func (r *postRepository) GetUserPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, *time.Time, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT ` + postColumns + `
			FROM posts
			WHERE user_id = $1 AND deleted_at IS NULL
			ORDER BY created_at DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit + 1}
	} else {
		query = `
			SELECT ` + postColumns + `
			FROM posts
			WHERE user_id = $1 AND deleted_at IS NULL AND created_at < $2
			ORDER BY created_at DESC
			LIMIT $3
		`
		args = []interface{}{userID, cursor, limit + 1}
	}

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get user posts: %w", err)
	}

	var nextCursor *time.Time
	if len(posts) > limit {
		posts = posts[:limit]
		nextCursor = &posts[len(posts)-1].CreatedAt
	}

	return posts, nextCursor, nil
}

// GetRecentPostsByUser returns (postID, timestamp) pairs for backfilling a
// follower's feed cache.
func (r *postRepository) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT id, created_at
		FROM posts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryxContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}
	defer rows.Close()

	var scores []cache.PostScore
	for rows.Next() {
		var id int64
		var createdAt time.Time
		if err := rows.Scan(&id, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recent post: %w", err)
		}
		scores = append(scores, cache.PostScore{PostID: id, Timestamp: createdAt.Unix()})
	}

	return scores, rows.Err()
}

// GetFeedPostIDs returns the newest posts from the given authors, for warming
// a feed cache. Shares by the followees are included with the share's own
// timestamp, so a warmed cache matches what incremental fan-out would build.
func (r *postRepository) GetFeedPostIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error) {
	if len(followeeIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT post_id, ts FROM (
			SELECT p.id AS post_id, p.created_at AS ts
			FROM posts p
			WHERE p.user_id = ANY($1) AND p.deleted_at IS NULL
			UNION ALL
			SELECT s.post_id, s.created_at AS ts
			FROM shares s
			JOIN posts p ON p.id = s.post_id AND p.deleted_at IS NULL
			WHERE s.user_id = ANY($1)
		) feed
		ORDER BY ts DESC
		LIMIT $2
	`

	rows, err := r.db.QueryxContext(ctx, query, pq.Array(followeeIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("get feed post ids: %w", err)
	}
	defer rows.Close()

	var scores []cache.PostScore
	for rows.Next() {
		var id int64
		var ts time.Time
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, fmt.Errorf("scan feed post: %w", err)
		}
		scores = append(scores, cache.PostScore{PostID: id, Timestamp: ts.Unix()})
	}

	return scores, rows.Err()
}

// GetAuthorID returns the author of a live post.
func (r *postRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	var authorID int64
	err := r.db.GetContext(ctx, &authorID, `SELECT user_id FROM posts WHERE id = $1 AND deleted_at IS NULL`, postID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get author id: %w", err)
	}
	return authorID, nil
}

// Exists checks if a post exists (not deleted).
func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)`, postID)
	if err != nil {
		return false, fmt.Errorf("check post existence: %w", err)
	}
	return exists, nil
}

func (r *postRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	_, err := tx.ExecContext(ctx, `UPDATE posts SET like_count = like_count + $1 WHERE id = $2`, delta, postID)
	if err != nil {
		return fmt.Errorf("failed to increment like count: %w", err)
	}
	return nil
}

func (r *postRepository) IncrementShareCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	_, err := tx.ExecContext(ctx, `UPDATE posts SET share_count = share_count + $1 WHERE id = $2`, delta, postID)
	if err != nil {
		return fmt.Errorf("failed to increment share count: %w", err)
	}
	return nil
}
