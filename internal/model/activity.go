package model

import (
	"errors"
	"time"
)

// ActivityKind labels the origin of an activity feed entry.
type ActivityKind string

const (
	ActivityPosted ActivityKind = "POSTED"
	ActivityLiked  ActivityKind = "LIKED"
	ActivityShared ActivityKind = "SHARED"
)

// ActivityEntry is a derived, never-persisted record of a user's action.
// For LIKED and SHARED entries PostID is the id of the referenced post, not
// of the like/share row, while Timestamp is the like/share row's own time.
type ActivityEntry struct {
	Kind      ActivityKind `json:"kind"`
	PostID    int64        `json:"post_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// Like represents a like event on a post.
type Like struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Share represents a share (repost) event, distinct from the original post.
type Share struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var (
	ErrAlreadyLiked  = errors.New("post already liked")
	ErrNotLiked      = errors.New("post not liked")
	ErrAlreadyShared = errors.New("post already shared")
	ErrNotShared     = errors.New("post not shared")
)
