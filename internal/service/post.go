package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ripplr_backend/internal/model"
	"ripplr_backend/internal/queue"
	"ripplr_backend/internal/repository"
)

type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	likeRepo  repository.LikeRepository
	shareRepo repository.ShareRepository
	publisher queue.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likeRepo repository.LikeRepository,
	shareRepo repository.ShareRepository,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		likeRepo:  likeRepo,
		shareRepo: shareRepo,
		publisher: publisher,
	}
}

// Create creates a new post and publishes an event for feed fan-out.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrEmptyContent
	}
	if len(content) > model.MaxPostContentLength {
		return nil, model.ErrContentTooLong
	}

	post, err := s.postRepo.Create(ctx, userID, content, req.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	// Fan-out is asynchronous; a publish failure leaves feeds stale but the
	// post exists, so log and move on.
	event := queue.NewPostCreatedEvent(post.ID, userID)
	msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		log.Printf("[PostService] Failed to publish PostCreated event: post=%d err=%v", post.ID, err)
	} else {
		log.Printf("[PostService] Published PostCreated: post=%d msgID=%s", post.ID, msgID)
	}

	if author, err := s.userRepo.GetByID(ctx, userID); err == nil {
		post.Author = &model.UserSummary{
			ID:        author.ID,
			Username:  author.Username,
			Nickname:  author.Nickname,
			AvatarURL: author.AvatarURL,
		}
	}

	return post, nil
}

// GetByID retrieves a single post with author info and viewer flags.
func (s *PostService) GetByID(ctx context.Context, postID int64, viewerID *int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if author, err := s.userRepo.GetByID(ctx, post.UserID); err == nil {
		post.Author = &model.UserSummary{
			ID:        author.ID,
			Username:  author.Username,
			Nickname:  author.Nickname,
			AvatarURL: author.AvatarURL,
		}
	}

	if viewerID != nil {
		s.attachViewerFlags(ctx, *viewerID, []*model.Post{post})
	}

	return post, nil
}

// GetUserPosts lists a user's posts newest first with cursor pagination.
func (s *PostService) GetUserPosts(ctx context.Context, username string, viewerID *int64, cursor *time.Time, limit int) (*model.PostListResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 50 {
		limit = 20
	}

	posts, nextCursor, err := s.postRepo.GetUserPosts(ctx, user.ID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("get user posts: %w", err)
	}

	author := &model.UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		Nickname:  user.Nickname,
		AvatarURL: user.AvatarURL,
	}
	ptrs := make([]*model.Post, len(posts))
	for i := range posts {
		posts[i].Author = author
		ptrs[i] = &posts[i]
	}

	if viewerID != nil {
		s.attachViewerFlags(ctx, *viewerID, ptrs)
	}

	resp := &model.PostListResponse{
		Posts:   posts,
		HasMore: nextCursor != nil,
	}
	if nextCursor != nil {
		c := nextCursor.UTC().Format(time.RFC3339Nano)
		resp.NextCursor = &c
	}
	return resp, nil
}

// Delete soft-deletes a post the caller owns and publishes the removal
// event so feeds drop it.
func (s *PostService) Delete(ctx context.Context, postID, userID int64) error {
	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	event := queue.NewPostDeletedEvent(postID, userID)
	msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		log.Printf("[PostService] Failed to publish PostDeleted event: post=%d err=%v", postID, err)
	} else {
		log.Printf("[PostService] Published PostDeleted: post=%d msgID=%s", postID, msgID)
	}

	return nil
}

// attachViewerFlags marks which of the given posts the viewer has liked or
// shared. Failures only degrade the flags, never the response.
func (s *PostService) attachViewerFlags(ctx context.Context, viewerID int64, posts []*model.Post) {
	if len(posts) == 0 {
		return
	}
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	liked, err := s.likeRepo.CheckLikes(ctx, viewerID, ids)
	if err != nil {
		log.Printf("[PostService] Failed to check like status: viewer=%d err=%v", viewerID, err)
	}
	shared, err := s.shareRepo.CheckShares(ctx, viewerID, ids)
	if err != nil {
		log.Printf("[PostService] Failed to check share status: viewer=%d err=%v", viewerID, err)
	}

	for _, p := range posts {
		p.IsLiked = liked[p.ID]
		p.IsShared = shared[p.ID]
	}
}
