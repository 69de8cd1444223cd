package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"ripplr_backend/internal/model"
	"ripplr_backend/internal/queue"
	"ripplr_backend/internal/repository"
)

// EngagementService handles likes and shares. Both follow the same shape:
// verify the post exists, then insert/delete the join row and bump the
// counter in one transaction, then publish the event best-effort.
type EngagementService struct {
	postRepo  repository.PostRepository
	likeRepo  repository.LikeRepository
	shareRepo repository.ShareRepository
	publisher queue.Publisher
	db        *sqlx.DB
}

func NewEngagementService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	shareRepo repository.ShareRepository,
	publisher queue.Publisher,
	db *sqlx.DB,
) *EngagementService {
	return &EngagementService{
		postRepo:  postRepo,
		likeRepo:  likeRepo,
		shareRepo: shareRepo,
		publisher: publisher,
		db:        db,
	}
}

// Like records a like on a post. The existence check runs before the insert
// so a like on a missing or deleted post is ErrPostNotFound, not a silent
// no-op.
func (s *EngagementService) Like(ctx context.Context, postID, userID int64) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.likeRepo.Create(ctx, tx, postID, userID)
	if err != nil {
		return fmt.Errorf("insert like: %w", err)
	}
	if !inserted {
		return model.ErrAlreadyLiked
	}

	if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[EngagementService] User %d liked post %d", userID, postID)

	if authorID, err := s.postRepo.GetAuthorID(ctx, postID); err == nil && authorID != userID {
		event := queue.NewPostLikedEvent(postID, authorID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
			log.Printf("[EngagementService] Failed to publish PostLiked event: %v", err)
		}
	}

	return nil
}

// Unlike removes a like. ErrNotLiked when there was nothing to remove.
func (s *EngagementService) Unlike(ctx context.Context, postID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.likeRepo.Delete(ctx, tx, postID, userID); err != nil {
		return err
	}

	if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[EngagementService] User %d unliked post %d", userID, postID)
	return nil
}

// Share records a share (repost). The committed share triggers a fan-out of
// the original post into the sharer's followers' feeds.
func (s *EngagementService) Share(ctx context.Context, postID, userID int64) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.shareRepo.Create(ctx, tx, postID, userID)
	if err != nil {
		return fmt.Errorf("insert share: %w", err)
	}
	if !inserted {
		return model.ErrAlreadyShared
	}

	if err := s.postRepo.IncrementShareCount(ctx, tx, postID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[EngagementService] User %d shared post %d", userID, postID)

	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		log.Printf("[EngagementService] Failed to resolve author for shared post %d: %v", postID, err)
		authorID = 0
	}
	event := queue.NewPostSharedEvent(postID, authorID, userID)
	if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		log.Printf("[EngagementService] Failed to publish PostShared event: %v", err)
	}

	return nil
}

// Unshare removes a share. ErrNotShared when there was nothing to remove.
func (s *EngagementService) Unshare(ctx context.Context, postID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.shareRepo.Delete(ctx, tx, postID, userID); err != nil {
		return err
	}

	if err := s.postRepo.IncrementShareCount(ctx, tx, postID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[EngagementService] User %d unshared post %d", userID, postID)

	event := queue.NewShareRemovedEvent(postID, userID)
	if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		log.Printf("[EngagementService] Failed to publish ShareRemoved event: %v", err)
	}

	return nil
}
