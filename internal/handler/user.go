package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ripplr_backend/internal/httputil"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/service"
	"ripplr_backend/internal/transport/http/middleware"
)

// UserHandler serves the account endpoints: registration, authentication,
// profile reads, activity, and the guarded profile mutations.
type UserHandler struct {
	userService     *service.UserService
	authService     *service.AuthService
	activityService *service.ActivityService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService, activityService *service.ActivityService) *UserHandler {
	return &UserHandler{
		userService:     userService,
		authService:     authService,
		activityService: activityService,
	}
}

// Register handles POST /users. A successful registration logs the user in:
// the 201 body carries a fresh token pair alongside the welcome message.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidEmail):
			httputil.WriteBadRequest(w, "Invalid email address")
		case errors.Is(err, model.ErrInvalidRequest):
			httputil.WriteBadRequest(w, "Invalid request")
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteConflict(w, "Username already exists")
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, "Email already exists")
		default:
			log.Printf("[UserHandler] Register failed: %v", err)
			httputil.WriteInternalError(w, "Failed to create user")
		}
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID, r.Header.Get("User-Agent"), clientIP(r))
	if err != nil {
		log.Printf("[UserHandler] Token generation failed after register: user=%d err=%v", user.ID, err)
		httputil.WriteInternalError(w, "Failed to generate token")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.AuthResponse{
		Message:      "User created",
		AuthToken:    tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

// Authenticate handles POST /users/authenticate. Any credential failure
// returns 401 with the fixed error message so callers can't probe accounts.
func (h *UserHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req model.AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), &req)
	if err != nil {
		httputil.WriteUnauthorized(w, model.IncorrectCredentialsMessage)
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID, r.Header.Get("User-Agent"), clientIP(r))
	if err != nil {
		log.Printf("[UserHandler] Token generation failed after login: user=%d err=%v", user.ID, err)
		httputil.WriteInternalError(w, "Failed to generate token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.AuthResponse{
		Message:      "Authenticated",
		AuthToken:    tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

// GetProfile handles GET /users/{username}. The response is the public DTO:
// counts instead of raw relations, never the password hash.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[UserHandler] GetProfile failed: username=%s err=%v", username, err)
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user.DTO())
}

// GetActivity handles GET /users/{username}/activity: the merged, newest-
// first record of the user's posts, likes, and shares.
func (h *UserHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	entries, err := h.activityService.GetUserActivity(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[UserHandler] GetActivity failed: username=%s err=%v", username, err)
		httputil.WriteInternalError(w, "Failed to get activity")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"activity": entries,
	})
}

// Update handles PATCH /users/{username}. Only the profile's owner may
// change it; an unknown username is 404 before any ownership check.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if _, err := h.userService.Update(r.Context(), username, actorID, &req); err != nil {
		h.writeMutationError(w, username, err)
		return
	}

	httputil.WriteText(w, http.StatusOK, "User updated")
}

// Delete handles DELETE /users/{username} with the same guard as Update.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.userService.Delete(r.Context(), username, actorID); err != nil {
		h.writeMutationError(w, username, err)
		return
	}

	httputil.WriteText(w, http.StatusOK, "User deleted")
}

// Search handles GET /users?q=...
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.WriteBadRequest(w, "Query parameter 'q' is required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	users, err := h.userService.Search(r.Context(), query, limit)
	if err != nil {
		log.Printf("[UserHandler] Search failed: %v", err)
		httputil.WriteInternalError(w, "Failed to search users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// writeMutationError maps profile mutation failures onto the status ladder:
// unknown target 404, foreign target 403, vanished row 500.
func (h *UserHandler) writeMutationError(w http.ResponseWriter, username string, err error) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "Invalid username")
	case errors.Is(err, model.ErrNotProfileOwner):
		httputil.WriteForbidden(w, "You may only modify your own profile")
	case errors.Is(err, model.ErrInvalidEmail):
		httputil.WriteBadRequest(w, "Invalid email address")
	case errors.Is(err, model.ErrInvalidRequest):
		httputil.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, model.ErrUsernameExists):
		httputil.WriteConflict(w, "Username already exists")
	case errors.Is(err, model.ErrEmailExists):
		httputil.WriteConflict(w, "Email already exists")
	case errors.Is(err, model.ErrNoRowsAffected):
		log.Printf("[UserHandler] Mutation raced with delete: username=%s", username)
		httputil.WriteInternalError(w, "Failed to apply changes")
	default:
		log.Printf("[UserHandler] Mutation failed: username=%s err=%v", username, err)
		httputil.WriteInternalError(w, "Failed to apply changes")
	}
}
