package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"ripplr_backend/internal/cache"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/repository"
)

const (
	// FeedDefaultLimit is the default number of posts per page
	FeedDefaultLimit = 10

	// FeedMaxLimit is the maximum number of posts per page
	FeedMaxLimit = 50

	// CacheWarmLimit is max posts to fetch when warming the cache
	CacheWarmLimit = 500
)

type FeedService struct {
	feedCache  cache.FeedCache
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	likeRepo   repository.LikeRepository
	shareRepo  repository.ShareRepository
}

func NewFeedService(
	feedCache cache.FeedCache,
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	likeRepo repository.LikeRepository,
	shareRepo repository.ShareRepository,
) *FeedService {
	return &FeedService{
		feedCache:  feedCache,
		postRepo:   postRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
		likeRepo:   likeRepo,
		shareRepo:  shareRepo,
	}
}

// GetFeed retrieves the user's home feed with cursor-based pagination.
//
// Flow: check the cache, warm it on a miss (followees' posts and shares up
// to the cap), page post IDs out of the sorted set, then hydrate full rows
// from the database.
func (s *FeedService) GetFeed(ctx context.Context, userID int64, cursor *string, limit int) (*model.FeedResponse, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}

	exists, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		log.Printf("[FeedService] Cache check failed for user=%d: %v", userID, err)
	}

	if !exists {
		log.Printf("[FeedService] Cache miss for user=%d, warming...", userID)
		if err := s.warmCache(ctx, userID); err != nil {
			log.Printf("[FeedService] Cache warm failed for user=%d: %v", userID, err)
		}
	}

	var cursorScore *float64
	if cursor != nil {
		score, _, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		cursorScore = &score
	}

	postIDs, scores, err := s.feedCache.GetFeed(ctx, userID, cursorScore, limit)
	if err != nil {
		return nil, fmt.Errorf("get feed from cache: %w", err)
	}

	if len(postIDs) == 0 {
		return &model.FeedResponse{Posts: []model.Post{}}, nil
	}

	posts, err := s.hydratePosts(ctx, userID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	var nextCursor *string
	hasMore := len(posts) == limit
	if hasMore && len(scores) > 0 {
		lastPost := posts[len(posts)-1]
		lastScore := scores[len(scores)-1]
		c := formatFeedCursor(lastScore, lastPost.ID)
		nextCursor = &c
	}

	log.Printf("[FeedService] GetFeed OK: user=%d posts=%d hasMore=%v duration=%v",
		userID, len(posts), hasMore, time.Since(startTime))

	return &model.FeedResponse{
		Posts:      posts,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// warmCache populates the user's feed cache from the database. The query
// takes posts and shares of everyone the user follows, plus the user's own
// posts, each at the timestamp it should appear in the feed.
func (s *FeedService) warmCache(ctx context.Context, userID int64) error {
	startTime := time.Now()

	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("get followee ids: %w", err)
	}

	// A user's own posts belong in their feed too.
	followeeIDs = append(followeeIDs, userID)

	posts, err := s.postRepo.GetFeedPostIDs(ctx, followeeIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get feed post ids: %w", err)
	}

	if len(posts) == 0 {
		log.Printf("[FeedService] No posts to warm for user=%d", userID)
		return nil
	}

	if err := s.feedCache.WarmCache(ctx, userID, posts); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}

	log.Printf("[FeedService] Cache warmed: user=%d posts=%d duration=%v",
		userID, len(posts), time.Since(startTime))

	return nil
}

// hydratePosts fetches full post rows and enriches them with author info
// and viewer flags. Enrichment failures degrade the flags, not the feed.
func (s *FeedService) hydratePosts(ctx context.Context, viewerID int64, postIDs []int64) ([]model.Post, error) {
	posts, err := s.postRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	authorIDSet := make(map[int64]struct{})
	for _, p := range posts {
		authorIDSet[p.UserID] = struct{}{}
	}
	authorIDs := make([]int64, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}

	authors := make(map[int64]*model.UserSummary)
	for _, authorID := range authorIDs {
		user, err := s.userRepo.GetByID(ctx, authorID)
		if err != nil {
			log.Printf("[FeedService] Failed to get author %d: %v", authorID, err)
			continue
		}
		authors[authorID] = &model.UserSummary{
			ID:        user.ID,
			Username:  user.Username,
			Nickname:  user.Nickname,
			AvatarURL: user.AvatarURL,
		}
	}

	followStatus, err := s.followRepo.CheckFollows(ctx, viewerID, authorIDs)
	if err != nil {
		log.Printf("[FeedService] Failed to check follows: %v", err)
	}
	likeStatus, err := s.likeRepo.CheckLikes(ctx, viewerID, postIDs)
	if err != nil {
		log.Printf("[FeedService] Failed to check likes: %v", err)
	}
	shareStatus, err := s.shareRepo.CheckShares(ctx, viewerID, postIDs)
	if err != nil {
		log.Printf("[FeedService] Failed to check shares: %v", err)
	}

	for i := range posts {
		if a, ok := authors[posts[i].UserID]; ok {
			summary := *a
			if followStatus != nil {
				summary.IsFollowing = followStatus[posts[i].UserID]
			}
			posts[i].Author = &summary
		}
		if likeStatus != nil {
			posts[i].IsLiked = likeStatus[posts[i].ID]
		}
		if shareStatus != nil {
			posts[i].IsShared = shareStatus[posts[i].ID]
		}
	}

	return posts, nil
}

// parseFeedCursor parses an "id:timestamp" cursor into score and post ID.
// Cursors are client-echoed, so every parse failure is ErrInvalidCursor.
func parseFeedCursor(cursor string) (float64, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected id:timestamp", model.ErrInvalidCursor)
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad post id", model.ErrInvalidCursor)
	}

	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad timestamp", model.ErrInvalidCursor)
	}

	return score, id, nil
}

// formatFeedCursor builds the "id:timestamp" cursor.
func formatFeedCursor(score float64, id int64) string {
	return fmt.Sprintf("%d:%.0f", id, score)
}
