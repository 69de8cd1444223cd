package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"ripplr_backend/internal/cache"
	"ripplr_backend/internal/config"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/repository"
	"ripplr_backend/internal/service"
	authmw "ripplr_backend/internal/transport/http/middleware"
)

// =============================================================================
// Mock repositories — the handler tests drive real services over these,
// through a real chi router with the real auth middleware, so the full HTTP
// contract (statuses and bodies) is what gets asserted.
// =============================================================================

type stubUserRepo struct {
	users map[string]*model.User // keyed by username

	createErr error
	updateErr error
}

func newStubUserRepo(users ...*model.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	return repo
}

func (s *stubUserRepo) Create(ctx context.Context, user *model.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.users[user.Username]; exists {
		return model.ErrUsernameExists
	}
	user.ID = int64(len(s.users) + 1)
	user.CreatedAt = time.Now()
	s.users[user.Username] = user
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepo) Update(ctx context.Context, user *model.User) error {
	return s.updateErr
}

func (s *stubUserRepo) Delete(ctx context.Context, id int64) error {
	for username, u := range s.users {
		if u.ID == id {
			delete(s.users, username)
			return nil
		}
	}
	return model.ErrNoRowsAffected
}

func (s *stubUserRepo) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	return nil, nil
}

func (s *stubUserRepo) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (s *stubUserRepo) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

type stubRefreshTokenRepo struct{}

func (stubRefreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	token.ID = "rt-1"
	return nil
}

func (stubRefreshTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	return nil, model.ErrRefreshTokenNotFound
}

func (stubRefreshTokenRepo) Revoke(ctx context.Context, id string, replacedBy *string) error {
	return nil
}

func (stubRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	return nil
}

func (stubRefreshTokenRepo) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

// =============================================================================
// Router fixture
// =============================================================================

const testJWTSecret = "handler-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          testJWTSecret,
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 2592000,
	}
}

type routerFixture struct {
	router      chi.Router
	userRepo    *stubUserRepo
	authService *service.AuthService
}

func newRouterFixture(t *testing.T, users ...*model.User) *routerFixture {
	t.Helper()

	userRepo := newStubUserRepo(users...)
	cfg := testConfig()
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(stubRefreshTokenRepo{}, cfg)
	activityService := service.NewActivityService(userRepo, emptyPostRepo{}, emptyLikeRepo{}, emptyShareRepo{})
	h := NewUserHandler(userService, authService, activityService)
	ah := NewAuthHandler(userService, authService)

	r := chi.NewRouter()
	r.Post("/users", h.Register)
	r.Post("/users/authenticate", h.Authenticate)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.JWTSecret))
		r.Get("/me", ah.Me)
		r.Get("/users/{username}", h.GetProfile)
		r.Get("/users/{username}/activity", h.GetActivity)
		r.Patch("/users/{username}", h.Update)
		r.Delete("/users/{username}", h.Delete)
	})

	return &routerFixture{router: r, userRepo: userRepo, authService: authService}
}

func (f *routerFixture) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := f.authService.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hashed)
}

func existingUser(t *testing.T) *model.User {
	return &model.User{
		ID:             1,
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordHashed: mustHash(t, "alicepassword"),
		FollowerCount:  3,
		FollowingCount: 5,
		PostCount:      2,
	}
}

// Empty repos for the activity service; profile-centric tests never reach them.
type emptyPostRepo struct{}

func (emptyPostRepo) Create(ctx context.Context, userID int64, content string, imageURL *string) (*model.Post, error) {
	return nil, model.ErrPostNotFound
}
func (emptyPostRepo) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	return nil, model.ErrPostNotFound
}
func (emptyPostRepo) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	return nil, nil
}
func (emptyPostRepo) Delete(ctx context.Context, postID, userID int64) error { return nil }
func (emptyPostRepo) GetAuthoredByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	return nil, nil
}
func (emptyPostRepo) GetUserPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, *time.Time, error) {
	return nil, nil, nil
}
func (emptyPostRepo) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	return nil, nil
}
func (emptyPostRepo) GetFeedPostIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error) {
	return nil, nil
}
func (emptyPostRepo) GetAuthorID(ctx context.Context, postID int64) (int64, error) { return 0, nil }
func (emptyPostRepo) Exists(ctx context.Context, postID int64) (bool, error)       { return false, nil }
func (emptyPostRepo) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return nil
}
func (emptyPostRepo) IncrementShareCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return nil
}

type emptyLikeRepo struct{}

func (emptyLikeRepo) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	return false, nil
}
func (emptyLikeRepo) Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	return nil
}
func (emptyLikeRepo) GetByUser(ctx context.Context, userID int64) ([]model.Like, error) {
	return nil, nil
}
func (emptyLikeRepo) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	return nil, nil
}

type emptyShareRepo struct{}

func (emptyShareRepo) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	return false, nil
}
func (emptyShareRepo) Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	return nil
}
func (emptyShareRepo) GetByUser(ctx context.Context, userID int64) ([]model.Share, error) {
	return nil, nil
}
func (emptyShareRepo) CheckShares(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	return nil, nil
}

// =============================================================================
// REGISTER
// =============================================================================

func TestRegister_Returns201WithToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/users", "", model.CreateUserRequest{
		Username: "newuser",
		Email:    "new@example.com",
		Password: "supersecret",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp model.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Message == "" {
		t.Error("expected a message in the body")
	}
	if resp.AuthToken == "" {
		t.Error("expected authToken in the body")
	}
}

func TestRegister_DuplicateUsernameIs409(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))

	rec := f.do(t, http.MethodPost, "/users", "", model.CreateUserRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "supersecret",
	})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestRegister_InvalidEmailIs400(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/users", "", model.CreateUserRequest{
		Username: "newuser",
		Email:    "not-an-email",
		Password: "supersecret",
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRegister_StoreFailureIs500(t *testing.T) {
	f := newRouterFixture(t)
	f.userRepo.createErr = errors.New("connection refused")

	rec := f.do(t, http.MethodPost, "/users", "", model.CreateUserRequest{
		Username: "newuser",
		Email:    "new@example.com",
		Password: "supersecret",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d; body = %s", rec.Code, http.StatusInternalServerError, rec.Body.String())
	}
}

// =============================================================================
// AUTHENTICATE
// =============================================================================

func TestAuthenticate_Success(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))

	rec := f.do(t, http.MethodPost, "/users/authenticate", "", model.AuthenticateRequest{
		Email:    "alice@example.com",
		Password: "alicepassword",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp model.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.AuthToken == "" {
		t.Error("expected authToken in the body")
	}
}

func TestAuthenticate_FailureBodyIsFixed(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))

	tests := []struct {
		name string
		req  model.AuthenticateRequest
	}{
		{"wrong password", model.AuthenticateRequest{Email: "alice@example.com", Password: "wrong"}},
		{"unknown email", model.AuthenticateRequest{Email: "nobody@example.com", Password: "alicepassword"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/users/authenticate", "", tt.req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			// Both failure modes return the identical body so callers can't
			// probe which accounts exist.
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["error"] != model.IncorrectCredentialsMessage {
				t.Errorf("error = %q, want %q", body["error"], model.IncorrectCredentialsMessage)
			}
		})
	}
}

// =============================================================================
// PROFILE READS
// =============================================================================

func TestGetProfile_RequiresToken(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))

	rec := f.do(t, http.MethodGet, "/users/alice", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing token: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec2 := httptest.NewRecorder()
	f.router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: status = %d, want %d", rec2.Code, http.StatusUnauthorized)
	}
}

func TestGetProfile_ReturnsDTOWithoutSecrets(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))
	token := f.tokenFor(t, 2) // any authenticated user may read profiles

	rec := f.do(t, http.MethodGet, "/users/alice", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	body := rec.Body.String()
	if strings.Contains(body, "password") {
		t.Error("profile body leaks a password field")
	}

	var dto model.UserDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dto.Followers != 3 || dto.Following != 5 || dto.Posts != 2 {
		t.Errorf("counts = %d/%d/%d, want 3/5/2", dto.Followers, dto.Following, dto.Posts)
	}
}

func TestMe_ReturnsSameDTOShapeAsProfile(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))
	token := f.tokenFor(t, 1)

	rec := f.do(t, http.MethodGet, "/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	body := rec.Body.String()
	if strings.Contains(body, "password") {
		t.Error("me body leaks a password field")
	}
	if strings.Contains(body, "follower_count") {
		t.Error("me body exposes the raw storage field names")
	}

	var dto model.UserDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dto.Username != "alice" {
		t.Errorf("username = %q, want %q", dto.Username, "alice")
	}
	if dto.Followers != 3 || dto.Following != 5 || dto.Posts != 2 {
		t.Errorf("counts = %d/%d/%d, want 3/5/2", dto.Followers, dto.Following, dto.Posts)
	}
}

func TestGetProfile_UnknownUserIs404(t *testing.T) {
	f := newRouterFixture(t)
	token := f.tokenFor(t, 1)

	rec := f.do(t, http.MethodGet, "/users/ghost", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetActivity_UnknownUserIs404(t *testing.T) {
	f := newRouterFixture(t)
	token := f.tokenFor(t, 1)

	rec := f.do(t, http.MethodGet, "/users/ghost/activity", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// =============================================================================
// GUARDED MUTATIONS
// =============================================================================

func TestUpdate_OwnerGets200PlainText(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))
	token := f.tokenFor(t, 1)

	nickname := "Alice II"
	rec := f.do(t, http.MethodPatch, "/users/alice", token, model.UpdateUserRequest{Nickname: &nickname})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q, want text/plain", ct)
	}
}

func TestUpdate_UnknownTargetIs404InvalidUsername(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))
	token := f.tokenFor(t, 1)

	rec := f.do(t, http.MethodPatch, "/users/ghost", token, model.UpdateUserRequest{})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "Invalid username" {
		t.Errorf("error = %q, want %q", body["error"], "Invalid username")
	}
}

// A valid token for a different account must never mutate someone else's
// profile: the target is resolved by the path, then ownership is enforced
// against the token's identity, so the request dies with 403.
func TestUpdate_ForeignTargetIs403(t *testing.T) {
	bob := &model.User{ID: 2, Username: "bob", Email: "bob@example.com", PasswordHashed: "x"}
	f := newRouterFixture(t, existingUser(t), bob)
	bobToken := f.tokenFor(t, 2)

	nickname := "Hijacked"
	rec := f.do(t, http.MethodPatch, "/users/alice", bobToken, model.UpdateUserRequest{Nickname: &nickname})

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestUpdate_RowVanishedIs500(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))
	f.userRepo.updateErr = model.ErrNoRowsAffected
	token := f.tokenFor(t, 1)

	rec := f.do(t, http.MethodPatch, "/users/alice", token, model.UpdateUserRequest{})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestDelete_OwnerGets200AndUserIsGone(t *testing.T) {
	f := newRouterFixture(t, existingUser(t))
	token := f.tokenFor(t, 1)

	rec := f.do(t, http.MethodDelete, "/users/alice", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	if _, err := f.userRepo.GetByUsername(context.Background(), "alice"); err == nil {
		t.Error("user still present after delete")
	}
}

func TestDelete_ForeignTargetIs403(t *testing.T) {
	bob := &model.User{ID: 2, Username: "bob", Email: "bob@example.com", PasswordHashed: "x"}
	f := newRouterFixture(t, existingUser(t), bob)
	bobToken := f.tokenFor(t, 2)

	rec := f.do(t, http.MethodDelete, "/users/alice", bobToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if _, err := f.userRepo.GetByUsername(context.Background(), "alice"); err != nil {
		t.Error("user vanished despite the 403")
	}
}

func TestDelete_UnknownTargetIs404(t *testing.T) {
	f := newRouterFixture(t)
	token := f.tokenFor(t, 1)

	rec := f.do(t, http.MethodDelete, "/users/ghost", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// Unused interface assertions keep the stubs honest.
var (
	_ repository.UserRepository         = (*stubUserRepo)(nil)
	_ repository.RefreshTokenRepository = stubRefreshTokenRepo{}
	_ repository.PostRepository         = emptyPostRepo{}
	_ repository.LikeRepository         = emptyLikeRepo{}
	_ repository.ShareRepository        = emptyShareRepo{}
)
