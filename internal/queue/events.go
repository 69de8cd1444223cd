package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the feed stream
const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventPostLiked      = "post_liked"
	EventPostShared     = "post_shared"
	EventShareRemoved   = "share_removed"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
)

// Stream names
const (
	StreamFeed = "stream:feed"
)

// Consumer group name for feed workers
const (
	ConsumerGroupFeed = "feed_workers"
)

// FeedEvent represents an event published to the feed stream.
// All feed-related events share this structure.
type FeedEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Post events (created/deleted/liked/shared)
	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"` // Author of the post
	ActorID  int64 `json:"actor_id,omitempty"`  // User who liked/shared

	// Follow events
	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`
}

// NewPostCreatedEvent creates an event for a new post. The worker fans the
// post out to all of the author's followers' feed caches.
func NewPostCreatedEvent(postID, authorID int64) FeedEvent {
	return FeedEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostDeletedEvent creates an event for a deleted post. The worker removes
// the post from all followers' feed caches.
func NewPostDeletedEvent(postID, authorID int64) FeedEvent {
	return FeedEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostLikedEvent creates an event for a like. The worker notifies the
// post's author.
func NewPostLikedEvent(postID, authorID, actorID int64) FeedEvent {
	return FeedEvent{
		Type:      EventPostLiked,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
		ActorID:   actorID,
	}
}

// NewPostSharedEvent creates an event for a share. The worker fans the shared
// post out to the SHARER's followers and notifies the post's author.
func NewPostSharedEvent(postID, authorID, actorID int64) FeedEvent {
	return FeedEvent{
		Type:      EventPostShared,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
		ActorID:   actorID,
	}
}

// NewShareRemovedEvent creates an event for an undone share. The worker
// removes the post from the sharer's followers' feed caches.
func NewShareRemovedEvent(postID, actorID int64) FeedEvent {
	return FeedEvent{
		Type:      EventShareRemoved,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
	}
}

// NewUserFollowedEvent creates an event for a new follow. The worker
// backfills the follower's feed with the followee's recent posts and
// notifies the followee.
func NewUserFollowedEvent(followerID, followeeID int64) FeedEvent {
	return FeedEvent{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewUserUnfollowedEvent creates an event for an unfollow. The worker removes
// the ex-followee's posts from the follower's feed cache.
func NewUserUnfollowedEvent(followerID, followeeID int64) FeedEvent {
	return FeedEvent{
		Type:       EventUserUnfollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// ToMap serializes the event into the field map XADD expects.
// The whole event rides in a single "data" field as JSON.
func (e FeedEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{"data": string(data)}, nil
}

// EventFromMap parses an event out of a Redis stream message's values.
func EventFromMap(values map[string]interface{}) (FeedEvent, error) {
	var event FeedEvent

	raw, ok := values["data"].(string)
	if !ok {
		return event, fmt.Errorf("message missing data field")
	}

	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("unmarshal event: %w", err)
	}

	return event, nil
}
