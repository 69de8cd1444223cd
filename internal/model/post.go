package model

import (
	"errors"
	"time"
)

// Post represents a user's post with its metadata.
type Post struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Content    string     `db:"content" json:"content"`
	ImageURL   *string    `db:"image_url" json:"image_url"`
	LikeCount  int        `db:"like_count" json:"like_count"`
	ShareCount int        `db:"share_count" json:"share_count"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`

	// Joined fields (not in posts table)
	Author   *UserSummary `json:"author,omitempty"`
	IsLiked  bool         `json:"is_liked"`
	IsShared bool         `json:"is_shared"`
}

// FeedResponse is the paginated home feed response. Posts carry their
// joined Author and viewer flags.
type FeedResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// PostListResponse is the paginated post list for a profile page.
type PostListResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Content  string  `json:"content" validate:"required,max=2200"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}

const (
	// MaxPostContentLength bounds the post body
	MaxPostContentLength = 2200

	// PostImageFolder is the object-store prefix for post images
	PostImageFolder = "posts"

	// MaxPostImageSize limits direct uploads
	MaxPostImageSize = 10 * 1024 * 1024 // 10MB
)

// Post errors
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrNotPostOwner   = errors.New("not the owner of this post")
	ErrEmptyContent   = errors.New("post content is required")
	ErrContentTooLong = errors.New("post content too long")

	// ErrInvalidCursor is returned when a client-supplied pagination cursor
	// does not parse
	ErrInvalidCursor = errors.New("invalid feed cursor")
)
