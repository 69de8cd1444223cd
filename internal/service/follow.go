package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"ripplr_backend/internal/model"
	"ripplr_backend/internal/queue"
	"ripplr_backend/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	db         *sqlx.DB
	publisher  queue.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		db:         db,
		publisher:  publisher,
	}
}

// Follow creates a follow edge from followerID to followeeID. The followee
// must exist; the edge and both counters commit in one transaction, and the
// backfill event publishes only after the commit.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Create(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !inserted {
		return model.ErrAlreadyFollowing
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, 1); err != nil {
		return err
	}
	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	event := queue.NewUserFollowedEvent(followerID, followeeID)
	msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		log.Printf("[FollowService] Failed to publish UserFollowed event: follower=%d followee=%d err=%v",
			followerID, followeeID, err)
	} else {
		log.Printf("[FollowService] Published UserFollowed: follower=%d followee=%d msgID=%s",
			followerID, followeeID, msgID)
	}

	return nil
}

// Unfollow removes the follow edge and decrements both counters.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.followRepo.Delete(ctx, tx, followerID, followeeID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, -1); err != nil {
		return err
	}
	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	event := queue.NewUserUnfollowedEvent(followerID, followeeID)
	msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		log.Printf("[FollowService] Failed to publish UserUnfollowed event: follower=%d followee=%d err=%v",
			followerID, followeeID, err)
	} else {
		log.Printf("[FollowService] Published UserUnfollowed: follower=%d followee=%d msgID=%s",
			followerID, followeeID, msgID)
	}

	return nil
}

// GetFollowers lists the users following userID, newest first, with cursor
// pagination. Follow status for the viewer is enriched in a second batch
// query; if that check fails the list still returns, just without flags.
func (s *FollowService) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowers(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}
	return s.buildFollowList(ctx, users, nextCursor, viewerID), nil
}

// GetFollowing lists the users userID follows.
func (s *FollowService) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowing(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}
	return s.buildFollowList(ctx, users, nextCursor, viewerID), nil
}

// IsFollowing reports whether followerID follows followeeID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

func (s *FollowService) buildFollowList(ctx context.Context, users []model.UserSummary, nextCursor *time.Time, viewerID *int64) *model.FollowListResponse {
	if viewerID != nil && len(users) > 0 {
		ids := make([]int64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		follows, err := s.followRepo.CheckFollows(ctx, *viewerID, ids)
		if err != nil {
			log.Printf("[FollowService] Failed to check follow status: viewer=%d err=%v", *viewerID, err)
		} else {
			for i := range users {
				users[i].IsFollowing = follows[users[i].ID]
			}
		}
	}

	resp := &model.FollowListResponse{
		Users:   users,
		HasMore: nextCursor != nil,
	}
	if nextCursor != nil {
		str := nextCursor.UTC().Format(time.RFC3339Nano)
		resp.NextCursor = &str
	}
	return resp
}
