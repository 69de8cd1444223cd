package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"ripplr_backend/internal/model"
	"ripplr_backend/internal/repository"
)

// UserService is the user directory: account creation, credential
// authentication, lookups, and the guarded profile mutations.
type UserService struct {
	repo     repository.UserRepository
	validate *validator.Validate
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Create registers a new account. The email grammar is checked before any
// row is written; duplicate username/email surface from the database's
// unique constraints, so concurrent identical requests cannot both succeed.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHashed: string(hashedPassword),
	}

	if req.Nickname != "" {
		user.Nickname = &req.Nickname
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameExists) || errors.Is(err, model.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies email+password. Every failure mode collapses into
// ErrInvalidCredentials so callers can't probe which emails exist.
func (s *UserService) Authenticate(ctx context.Context, req *model.AuthenticateRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername resolves a profile by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Update applies a profile mutation for actorID against targetUsername.
//
// Guard order is deliberate: the target is resolved first so an unknown
// username reports ErrUserNotFound before anything else, then ownership is
// checked — a valid token for a different user is ErrNotProfileOwner, never
// a write.
func (s *UserService) Update(ctx context.Context, targetUsername string, actorID int64, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}

	if user.ID != actorID {
		return nil, model.ErrNotProfileOwner
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	if req.Nickname != nil {
		user.Nickname = req.Nickname
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHashed = string(hashed)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes the target profile after the same guard as Update.
func (s *UserService) Delete(ctx context.Context, targetUsername string, actorID int64) error {
	user, err := s.repo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}

	if user.ID != actorID {
		return model.ErrNotProfileOwner
	}

	return s.repo.Delete(ctx, user.ID)
}

// Search finds users by username prefix.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	return s.repo.Search(ctx, query, limit)
}

// mapValidationError turns validator output into domain errors where a field
// has a dedicated one (email grammar), wrapping everything else.
func mapValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "email" {
				return model.ErrInvalidEmail
			}
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidRequest, err)
	}
	return err
}
