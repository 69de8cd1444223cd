package model

import (
	"errors"
	"time"
)

// Notification types
const (
	NotifTypeLike   = "like"
	NotifTypeShare  = "share"
	NotifTypeFollow = "follow"
)

// Notification is an in-app notification created by the worker when another
// user likes or shares a post, or follows the recipient.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	ActorID   int64     `db:"actor_id" json:"actor_id"`
	Type      string    `db:"type" json:"type"`
	PostID    *int64    `db:"post_id" json:"post_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined actor fields
	Actor *UserSummary `json:"actor,omitempty"`
}

// NotificationListResponse is the notification list with unread counter.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadRequest is the body for POST /notifications/read.
// Empty IDs means mark everything read.
type MarkReadRequest struct {
	IDs []int64 `json:"ids"`
}

var ErrNotificationNotFound = errors.New("notification not found")
