package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"ripplr_backend/internal/model"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// UserService depends on the UserRepository interface, so tests swap in a
// mock with per-test function fields instead of a real database.

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	updateFn        func(ctx context.Context, user *model.User) error
	deleteFn        func(ctx context.Context, id int64) error

	createCalls []*model.User
	updateCalls []*model.User
	deleteCalls []int64
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	m.updateCalls = append(m.updateCalls, user)
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	m.deleteCalls = append(m.deleteCalls, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	return nil, nil
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hashed)
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestUserService_Create_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc := NewUserService(mockRepo)

	req := &model.CreateUserRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "securepassword123",
		Nickname: "Test User",
	}

	user, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.Username != req.Username {
		t.Errorf("username = %q, want %q", user.Username, req.Username)
	}
	if user.Nickname == nil || *user.Nickname != req.Nickname {
		t.Errorf("nickname = %v, want %q", user.Nickname, req.Nickname)
	}
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestUserService_Create_InvalidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"missing at sign", "not-an-email"},
		{"missing domain", "user@"},
		{"empty", ""},
		{"spaces", "user name@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := NewUserService(mockRepo)

			_, err := svc.Create(context.Background(), &model.CreateUserRequest{
				Username: "testuser",
				Email:    tt.email,
				Password: "securepassword123",
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			// The email must be rejected before any insert is attempted.
			if len(mockRepo.createCalls) != 0 {
				t.Errorf("Create reached the repository %d times, want 0", len(mockRepo.createCalls))
			}
		})
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.ErrUsernameExists
		},
	}
	svc := NewUserService(mockRepo)

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "taken",
		Email:    "new@example.com",
		Password: "securepassword123",
	})
	if !errors.Is(err, model.ErrUsernameExists) {
		t.Errorf("error = %v, want ErrUsernameExists", err)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.ErrEmailExists
		},
	}
	svc := NewUserService(mockRepo)

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "newuser",
		Email:    "taken@example.com",
		Password: "securepassword123",
	})
	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("error = %v, want ErrEmailExists", err)
	}
}

// =============================================================================
// AUTHENTICATE TESTS
// =============================================================================

func TestUserService_Authenticate_Success(t *testing.T) {
	hashed := hashPassword(t, "correct-password")
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, PasswordHashed: hashed}, nil
		},
	}
	svc := NewUserService(mockRepo)

	user, err := svc.Authenticate(context.Background(), &model.AuthenticateRequest{
		Email:    "test@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user id = %d, want 7", user.ID)
	}
}

func TestUserService_Authenticate_Failures(t *testing.T) {
	hashed := hashPassword(t, "correct-password")

	tests := []struct {
		name     string
		email    string
		password string
		repoErr  error
	}{
		{"unknown email", "nobody@example.com", "correct-password", model.ErrUserNotFound},
		{"wrong password", "test@example.com", "wrong-password", nil},
		{"repository failure", "test@example.com", "correct-password", errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &model.User{ID: 7, Email: email, PasswordHashed: hashed}, nil
				},
			}
			svc := NewUserService(mockRepo)

			_, err := svc.Authenticate(context.Background(), &model.AuthenticateRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			// Every failure collapses to the same error so callers can't
			// distinguish "no such account" from "wrong password".
			if !errors.Is(err, model.ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

// =============================================================================
// UPDATE / DELETE GUARD TESTS
// =============================================================================

func ownerUser() *model.User {
	return &model.User{ID: 10, Username: "owner", Email: "owner@example.com"}
}

func TestUserService_Update_UnknownTarget(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo)

	// Unknown target must be reported before ownership is even considered,
	// so a stranger's token still gets 404 semantics here.
	_, err := svc.Update(context.Background(), "ghost", 99, &model.UpdateUserRequest{})
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestUserService_Update_NotOwner(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return ownerUser(), nil
		},
	}
	svc := NewUserService(mockRepo)

	_, err := svc.Update(context.Background(), "owner", 99, &model.UpdateUserRequest{})
	if !errors.Is(err, model.ErrNotProfileOwner) {
		t.Errorf("error = %v, want ErrNotProfileOwner", err)
	}
	if len(mockRepo.updateCalls) != 0 {
		t.Errorf("Update reached the repository %d times, want 0", len(mockRepo.updateCalls))
	}
}

func TestUserService_Update_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return ownerUser(), nil
		},
	}
	svc := NewUserService(mockRepo)

	nickname := "New Nick"
	email := "new@example.com"
	user, err := svc.Update(context.Background(), "owner", 10, &model.UpdateUserRequest{
		Nickname: &nickname,
		Email:    &email,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.Nickname == nil || *user.Nickname != nickname {
		t.Errorf("nickname = %v, want %q", user.Nickname, nickname)
	}
	if user.Email != email {
		t.Errorf("email = %q, want %q", user.Email, email)
	}
	if len(mockRepo.updateCalls) != 1 {
		t.Fatalf("Update reached the repository %d times, want 1", len(mockRepo.updateCalls))
	}
}

func TestUserService_Update_PartialLeavesOtherFieldsAlone(t *testing.T) {
	original := ownerUser()
	bio := "old bio"
	original.Bio = &bio
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return original, nil
		},
	}
	svc := NewUserService(mockRepo)

	nickname := "Only Nick"
	user, err := svc.Update(context.Background(), "owner", 10, &model.UpdateUserRequest{
		Nickname: &nickname,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.Bio == nil || *user.Bio != "old bio" {
		t.Errorf("bio = %v, want unchanged %q", user.Bio, "old bio")
	}
	if user.Email != "owner@example.com" {
		t.Errorf("email = %q, want unchanged", user.Email)
	}
}

func TestUserService_Update_RowVanished(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return ownerUser(), nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			return model.ErrNoRowsAffected
		},
	}
	svc := NewUserService(mockRepo)

	_, err := svc.Update(context.Background(), "owner", 10, &model.UpdateUserRequest{})
	if !errors.Is(err, model.ErrNoRowsAffected) {
		t.Errorf("error = %v, want ErrNoRowsAffected", err)
	}
}

func TestUserService_Delete_NotOwner(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return ownerUser(), nil
		},
	}
	svc := NewUserService(mockRepo)

	err := svc.Delete(context.Background(), "owner", 99)
	if !errors.Is(err, model.ErrNotProfileOwner) {
		t.Errorf("error = %v, want ErrNotProfileOwner", err)
	}
	if len(mockRepo.deleteCalls) != 0 {
		t.Errorf("Delete reached the repository %d times, want 0", len(mockRepo.deleteCalls))
	}
}

func TestUserService_Delete_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return ownerUser(), nil
		},
	}
	svc := NewUserService(mockRepo)

	if err := svc.Delete(context.Background(), "owner", 10); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(mockRepo.deleteCalls) != 1 || mockRepo.deleteCalls[0] != 10 {
		t.Errorf("delete calls = %v, want [10]", mockRepo.deleteCalls)
	}
}
