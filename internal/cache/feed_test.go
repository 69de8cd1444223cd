package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestCache(t *testing.T) FeedCache {
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

	return NewFeedCache(client)
}

func TestFeedCache_AddAndGet(t *testing.T) {
	ctx := context.Background()
	fc := setupTestCache(t)

	if err := fc.AddPost(ctx, 1, 100, 1000); err != nil {
		t.Fatalf("AddPost: %v", err)
	}
	if err := fc.AddPost(ctx, 1, 101, 2000); err != nil {
		t.Fatalf("AddPost: %v", err)
	}
	if err := fc.AddPost(ctx, 1, 102, 3000); err != nil {
		t.Fatalf("AddPost: %v", err)
	}

	postIDs, scores, err := fc.GetFeed(ctx, 1, nil, 10)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}

	want := []int64{102, 101, 100}
	if len(postIDs) != len(want) {
		t.Fatalf("postIDs = %v, want %v", postIDs, want)
	}
	for i := range want {
		if postIDs[i] != want[i] {
			t.Errorf("postIDs[%d] = %d, want %d", i, postIDs[i], want[i])
		}
	}
	if scores[0] != 3000 {
		t.Errorf("scores[0] = %f, want 3000", scores[0])
	}
}

func TestFeedCache_CursorIsExclusive(t *testing.T) {
	ctx := context.Background()
	fc := setupTestCache(t)

	for i, postID := range []int64{100, 101, 102} {
		if err := fc.AddPost(ctx, 1, postID, int64(1000*(i+1))); err != nil {
			t.Fatalf("AddPost: %v", err)
		}
	}

	cursor := 3000.0
	postIDs, _, err := fc.GetFeed(ctx, 1, &cursor, 10)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}

	// The post at the cursor score must not repeat on the next page.
	want := []int64{101, 100}
	if len(postIDs) != len(want) {
		t.Fatalf("postIDs = %v, want %v", postIDs, want)
	}
	for i := range want {
		if postIDs[i] != want[i] {
			t.Errorf("postIDs[%d] = %d, want %d", i, postIDs[i], want[i])
		}
	}
}

func TestFeedCache_RemovePost(t *testing.T) {
	ctx := context.Background()
	fc := setupTestCache(t)

	if err := fc.AddPost(ctx, 1, 100, 1000); err != nil {
		t.Fatalf("AddPost: %v", err)
	}
	if err := fc.RemovePost(ctx, 1, 100); err != nil {
		t.Fatalf("RemovePost: %v", err)
	}

	size, err := fc.Size(ctx, 1)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Errorf("size = %d, want 0", size)
	}
}

func TestFeedCache_TrimsToCap(t *testing.T) {
	ctx := context.Background()
	fc := setupTestCache(t)

	for i := 0; i < FeedCacheCap+20; i++ {
		if err := fc.AddPost(ctx, 1, int64(i), int64(i)); err != nil {
			t.Fatalf("AddPost: %v", err)
		}
	}

	size, err := fc.Size(ctx, 1)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != FeedCacheCap {
		t.Errorf("size = %d, want %d", size, FeedCacheCap)
	}

	// The survivors must be the newest posts.
	postIDs, _, err := fc.GetFeed(ctx, 1, nil, 1)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if postIDs[0] != int64(FeedCacheCap+19) {
		t.Errorf("newest post = %d, want %d", postIDs[0], FeedCacheCap+19)
	}
}

func TestFeedCache_WarmCacheAndExists(t *testing.T) {
	ctx := context.Background()
	fc := setupTestCache(t)

	exists, err := fc.Exists(ctx, 1)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("expected no cache before warming")
	}

	posts := []PostScore{
		{PostID: 100, Timestamp: 1000},
		{PostID: 101, Timestamp: 2000},
	}
	if err := fc.WarmCache(ctx, 1, posts); err != nil {
		t.Fatalf("WarmCache: %v", err)
	}

	exists, err = fc.Exists(ctx, 1)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("expected cache to exist after warming")
	}

	postIDs, _, err := fc.GetFeed(ctx, 1, nil, 10)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if len(postIDs) != 2 || postIDs[0] != 101 {
		t.Errorf("postIDs = %v, want [101 100]", postIDs)
	}
}
