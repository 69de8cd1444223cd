package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ripplr_backend/internal/httputil"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/service"
	"ripplr_backend/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
	userService   *service.UserService
}

func NewFollowHandler(followService *service.FollowService, userService *service.UserService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		userService:   userService,
	}
}

// Follow handles POST /users/{username}/follow.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	followee, err := h.resolveTarget(w, r)
	if err != nil {
		return
	}

	if err := h.followService.Follow(r.Context(), followerID, followee.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequest(w, "Cannot follow yourself")
		case errors.Is(err, model.ErrAlreadyFollowing):
			httputil.WriteConflict(w, "Already following this user")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[FollowHandler] Follow failed: follower=%d followee=%d err=%v", followerID, followee.ID, err)
			httputil.WriteInternalError(w, "Failed to follow user")
		}
		return
	}

	httputil.WriteText(w, http.StatusOK, "Followed")
}

// Unfollow handles DELETE /users/{username}/follow.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	followee, err := h.resolveTarget(w, r)
	if err != nil {
		return
	}

	if err := h.followService.Unfollow(r.Context(), followerID, followee.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFollowing):
			httputil.WriteNotFound(w, "Not following this user")
		default:
			log.Printf("[FollowHandler] Unfollow failed: follower=%d followee=%d err=%v", followerID, followee.ID, err)
			httputil.WriteInternalError(w, "Failed to unfollow user")
		}
		return
	}

	httputil.WriteText(w, http.StatusOK, "Unfollowed")
}

// GetFollowers handles GET /users/{username}/followers.
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.followService.GetFollowers)
}

// GetFollowing handles GET /users/{username}/following.
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.followService.GetFollowing)
}

type followListFn func(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error)

func (h *FollowHandler) list(w http.ResponseWriter, r *http.Request, fn followListFn) {
	target, err := h.resolveTarget(w, r)
	if err != nil {
		return
	}

	var cursor *time.Time
	if c := r.URL.Query().Get("cursor"); c != "" {
		t, err := time.Parse(time.RFC3339Nano, c)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid cursor")
			return
		}
		cursor = &t
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 100 {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	resp, err := fn(r.Context(), target.ID, cursor, limit, viewerID)
	if err != nil {
		log.Printf("[FollowHandler] List failed: user=%d err=%v", target.ID, err)
		httputil.WriteInternalError(w, "Failed to list follows")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// resolveTarget maps the username path param to a user, writing the 404
// itself so callers just bail on error.
func (h *FollowHandler) resolveTarget(w http.ResponseWriter, r *http.Request) (*model.User, error) {
	username := chi.URLParam(r, "username")
	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
		} else {
			log.Printf("[FollowHandler] Target resolve failed: username=%s err=%v", username, err)
			httputil.WriteInternalError(w, "Failed to resolve user")
		}
		return nil, err
	}
	return user, nil
}
