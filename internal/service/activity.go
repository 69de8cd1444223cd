package service

import (
	"context"
	"fmt"
	"sort"

	"ripplr_backend/internal/model"
	"ripplr_backend/internal/repository"
)

// kindPriority orders entries that share a timestamp: a user's own post
// outranks a like, which outranks a share.
var kindPriority = map[model.ActivityKind]int{
	model.ActivityPosted: 0,
	model.ActivityLiked:  1,
	model.ActivityShared: 2,
}

// ActivityService assembles a user's activity feed by merging their
// authored posts with their like and share rows.
type ActivityService struct {
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	likeRepo  repository.LikeRepository
	shareRepo repository.ShareRepository
}

func NewActivityService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	shareRepo repository.ShareRepository,
) *ActivityService {
	return &ActivityService{
		userRepo:  userRepo,
		postRepo:  postRepo,
		likeRepo:  likeRepo,
		shareRepo: shareRepo,
	}
}

// GetUserActivity returns the merged activity entries for the given
// username, newest first. The user is resolved before any aggregation so an
// unknown username is ErrUserNotFound rather than an empty feed.
//
// Like and share entries carry the id of the post they reference with the
// timestamp of the like/share row itself. The sort is stable with an
// explicit kind tie-break, so equal timestamps order deterministically.
func (s *ActivityService) GetUserActivity(ctx context.Context, username string) ([]model.ActivityEntry, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.GetAuthoredByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load authored posts: %w", err)
	}

	likes, err := s.likeRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}

	shares, err := s.shareRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}

	entries := make([]model.ActivityEntry, 0, len(posts)+len(likes)+len(shares))

	for _, p := range posts {
		entries = append(entries, model.ActivityEntry{
			Kind:      model.ActivityPosted,
			PostID:    p.ID,
			Timestamp: p.CreatedAt,
		})
	}
	for _, l := range likes {
		entries = append(entries, model.ActivityEntry{
			Kind:      model.ActivityLiked,
			PostID:    l.PostID,
			Timestamp: l.CreatedAt,
		})
	}
	for _, sh := range shares {
		entries = append(entries, model.ActivityEntry{
			Kind:      model.ActivityShared,
			PostID:    sh.PostID,
			Timestamp: sh.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return kindPriority[entries[i].Kind] < kindPriority[entries[j].Kind]
	})

	return entries, nil
}
