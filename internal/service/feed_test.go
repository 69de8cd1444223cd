package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"ripplr_backend/internal/cache"
	"ripplr_backend/internal/model"
)

// =============================================================================
// Mock follow repository
// =============================================================================

type mockFollowRepository struct {
	getFolloweeIDsFn func(ctx context.Context, userID int64) ([]int64, error)
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return false, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error {
	return nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (m *mockFollowRepository) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFolloweeIDsFn != nil {
		return m.getFolloweeIDsFn(ctx, userID)
	}
	return nil, nil
}

// =============================================================================
// Fixture
// =============================================================================

func newFeedServiceFixture(t *testing.T) *FeedService {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return NewFeedService(
		cache.NewFeedCache(client),
		&mockPostRepository{},
		&mockFollowRepository{},
		&mockUserRepository{},
		&mockLikeRepository{},
		&mockShareRepository{},
	)
}

// =============================================================================
// Tests
// =============================================================================

func TestGetFeed_MalformedCursorIs400Sentinel(t *testing.T) {
	svc := newFeedServiceFixture(t)

	cases := []struct {
		name   string
		cursor string
	}{
		{name: "no separator", cursor: "garbage"},
		{name: "too many parts", cursor: "1:2:3"},
		{name: "non-numeric id", cursor: "abc:1700000000"},
		{name: "non-numeric timestamp", cursor: "42:later"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetFeed(context.Background(), 1, &tc.cursor, 10)
			if !errors.Is(err, model.ErrInvalidCursor) {
				t.Errorf("error = %v, want ErrInvalidCursor", err)
			}
		})
	}
}

func TestGetFeed_ValidCursorOnEmptyFeed(t *testing.T) {
	svc := newFeedServiceFixture(t)

	cursor := formatFeedCursor(1700000000, 42)
	resp, err := svc.GetFeed(context.Background(), 1, &cursor, 10)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if len(resp.Posts) != 0 || resp.HasMore {
		t.Errorf("expected an empty page, got %d posts hasMore=%v", len(resp.Posts), resp.HasMore)
	}
}

func TestFeedCursorRoundTrip(t *testing.T) {
	c := formatFeedCursor(1700000000, 42)
	score, id, err := parseFeedCursor(c)
	if err != nil {
		t.Fatalf("parseFeedCursor(%q): %v", c, err)
	}
	if id != 42 || score != 1700000000 {
		t.Errorf("parsed id=%d score=%f, want 42/1700000000", id, score)
	}
}
