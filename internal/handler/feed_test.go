package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"ripplr_backend/internal/cache"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/repository"
	"ripplr_backend/internal/service"
	authmw "ripplr_backend/internal/transport/http/middleware"
)

// =============================================================================
// Stubs
// =============================================================================

type emptyFollowRepo struct{}

func (emptyFollowRepo) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return false, nil
}

func (emptyFollowRepo) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error {
	return nil
}

func (emptyFollowRepo) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return false, nil
}

func (emptyFollowRepo) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (emptyFollowRepo) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (emptyFollowRepo) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	return map[int64]bool{}, nil
}

func (emptyFollowRepo) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (emptyFollowRepo) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

var _ repository.FollowRepository = emptyFollowRepo{}

// =============================================================================
// Fixture
// =============================================================================

type feedFixture struct {
	router      chi.Router
	authService *service.AuthService
}

func newFeedFixture(t *testing.T) *feedFixture {
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

	cfg := testConfig()
	userRepo := newStubUserRepo()
	feedService := service.NewFeedService(
		cache.NewFeedCache(client),
		emptyPostRepo{},
		emptyFollowRepo{},
		userRepo,
		emptyLikeRepo{},
		emptyShareRepo{},
	)
	authService := service.NewAuthService(stubRefreshTokenRepo{}, cfg)
	h := NewFeedHandler(feedService)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.JWTSecret))
		r.Get("/feed", h.GetFeed)
	})

	return &feedFixture{router: r, authService: authService}
}

func (f *feedFixture) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := f.authService.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, router chi.Router, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Tests
// =============================================================================

func TestGetFeed_MalformedCursorIs400(t *testing.T) {
	f := newFeedFixture(t)
	token := f.tokenFor(t, 1)

	rec := doRequest(t, f.router, http.MethodGet, "/feed?cursor=garbage", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestGetFeed_EmptyFeedIs200(t *testing.T) {
	f := newFeedFixture(t)
	token := f.tokenFor(t, 1)

	rec := doRequest(t, f.router, http.MethodGet, "/feed", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}
