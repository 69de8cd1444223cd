package worker

import (
	"context"
	"fmt"
	"log"

	"ripplr_backend/internal/cache"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/queue"
)

// BackfillLimit is how many recent posts to copy into a feed when a user
// follows someone.
const BackfillLimit = 50

// FollowerProvider abstracts the follow repository so workers don't depend on
// the database layer directly.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecentPostsProvider fetches recent posts for feed backfill on follow.
type RecentPostsProvider interface {
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
}

// NotificationCreator lets the worker create notifications without depending
// on the notification service directly.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, userID, actorID int64, notifType string, postID *int64) error
}

// Handler processes feed events from the queue.
type Handler struct {
	feedCache        cache.FeedCache
	followerProvider FollowerProvider
	postsProvider    RecentPostsProvider
	notifCreator     NotificationCreator // nil if notifications not wired
}

// NewHandler creates a new event handler.
func NewHandler(
	feedCache cache.FeedCache,
	followerProvider FollowerProvider,
	postsProvider RecentPostsProvider,
) *Handler {
	return &Handler{
		feedCache:        feedCache,
		followerProvider: followerProvider,
		postsProvider:    postsProvider,
	}
}

// SetNotificationCreator sets the notification creator (optional).
func (h *Handler) SetNotificationCreator(nc NotificationCreator) {
	h.notifCreator = nc
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventPostShared:
		err = h.handlePostShared(ctx, event)
	case queue.EventShareRemoved:
		err = h.handleShareRemoved(ctx, event)
	case queue.EventPostLiked:
		err = h.handlePostLiked(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		err = h.handleUserUnfollowed(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s err=%v", event.Type, err)
		return err
	}

	return nil
}

// handlePostCreated fans a new post out to the author's followers' feed
// caches, plus the author's own.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get follower ids: %w", err)
	}

	targets := append(followers, event.AuthorID)
	for _, userID := range targets {
		if err := h.feedCache.AddPost(ctx, userID, event.PostID, event.Timestamp); err != nil {
			// Keep fanning out; one failed feed shouldn't block the rest
			log.Printf("[Worker] Fan-out add failed: user=%d post=%d err=%v", userID, event.PostID, err)
		}
	}

	log.Printf("[Worker] PostCreated fan-out: post=%d author=%d feeds=%d",
		event.PostID, event.AuthorID, len(targets))
	return nil
}

// handlePostDeleted removes the post from the author's followers' feed caches.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get follower ids: %w", err)
	}

	targets := append(followers, event.AuthorID)
	for _, userID := range targets {
		if err := h.feedCache.RemovePost(ctx, userID, event.PostID); err != nil {
			log.Printf("[Worker] Fan-out remove failed: user=%d post=%d err=%v", userID, event.PostID, err)
		}
	}

	return nil
}

// handlePostShared fans the shared post out to the SHARER's followers with
// the share's timestamp, so it resurfaces at the moment it was shared, and
// notifies the post's author.
func (h *Handler) handlePostShared(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("get follower ids: %w", err)
	}

	for _, userID := range followers {
		if err := h.feedCache.AddPost(ctx, userID, event.PostID, event.Timestamp); err != nil {
			log.Printf("[Worker] Share fan-out failed: user=%d post=%d err=%v", userID, event.PostID, err)
		}
	}

	h.notify(ctx, event.AuthorID, event.ActorID, model.NotifTypeShare, &event.PostID)
	return nil
}

// handleShareRemoved removes the post from the sharer's followers' feeds.
// A follower who also follows the original author loses the entry too and
// gets it back on the next cache warm; acceptable staleness.
func (h *Handler) handleShareRemoved(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("get follower ids: %w", err)
	}

	for _, userID := range followers {
		if err := h.feedCache.RemovePost(ctx, userID, event.PostID); err != nil {
			log.Printf("[Worker] Share removal failed: user=%d post=%d err=%v", userID, event.PostID, err)
		}
	}

	return nil
}

// handlePostLiked notifies the post's author. Likes don't change feeds.
func (h *Handler) handlePostLiked(ctx context.Context, event queue.FeedEvent) error {
	h.notify(ctx, event.AuthorID, event.ActorID, model.NotifTypeLike, &event.PostID)
	return nil
}

// handleUserFollowed backfills the follower's feed with the followee's recent
// posts and notifies the followee.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.FeedEvent) error {
	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, BackfillLimit)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}

	if len(posts) > 0 {
		if err := h.feedCache.WarmCache(ctx, event.FollowerID, posts); err != nil {
			return fmt.Errorf("backfill feed: %w", err)
		}
	}

	h.notify(ctx, event.FolloweeID, event.FollowerID, model.NotifTypeFollow, nil)
	return nil
}

// handleUserUnfollowed removes the ex-followee's recent posts from the
// follower's feed cache.
func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.FeedEvent) error {
	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, BackfillLimit)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}

	for _, p := range posts {
		if err := h.feedCache.RemovePost(ctx, event.FollowerID, p.PostID); err != nil {
			log.Printf("[Worker] Unfollow removal failed: user=%d post=%d err=%v", event.FollowerID, p.PostID, err)
		}
	}

	return nil
}

// notify creates a notification unless the actor is the recipient or no
// creator is wired. Notification failures are logged, never retried: the
// triggering action already succeeded.
func (h *Handler) notify(ctx context.Context, userID, actorID int64, notifType string, postID *int64) {
	if h.notifCreator == nil || userID == actorID || userID == 0 {
		return
	}
	if err := h.notifCreator.CreateNotification(ctx, userID, actorID, notifType, postID); err != nil {
		log.Printf("[Worker] Notification failed: user=%d actor=%d type=%s err=%v", userID, actorID, notifType, err)
	}
}
