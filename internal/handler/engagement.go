package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"ripplr_backend/internal/httputil"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/service"
	"ripplr_backend/internal/transport/http/middleware"
)

// EngagementHandler serves likes and shares on posts.
type EngagementHandler struct {
	engagementService *service.EngagementService
}

func NewEngagementHandler(engagementService *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// Like handles POST /posts/{id}/like.
func (h *EngagementHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.engagementService.Like, "Post liked")
}

// Unlike handles DELETE /posts/{id}/like.
func (h *EngagementHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.engagementService.Unlike, "Like removed")
}

// Share handles POST /posts/{id}/share.
func (h *EngagementHandler) Share(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.engagementService.Share, "Post shared")
}

// Unshare handles DELETE /posts/{id}/share.
func (h *EngagementHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.engagementService.Unshare, "Share removed")
}

func (h *EngagementHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, postID, userID int64) error, okMessage string) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := op(r.Context(), postID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrAlreadyLiked):
			httputil.WriteConflict(w, "Post already liked")
		case errors.Is(err, model.ErrNotLiked):
			httputil.WriteNotFound(w, "Post not liked")
		case errors.Is(err, model.ErrAlreadyShared):
			httputil.WriteConflict(w, "Post already shared")
		case errors.Is(err, model.ErrNotShared):
			httputil.WriteNotFound(w, "Post not shared")
		default:
			log.Printf("[EngagementHandler] Mutation failed: post=%d user=%d err=%v", postID, userID, err)
			httputil.WriteInternalError(w, "Failed to update engagement")
		}
		return
	}

	httputil.WriteText(w, http.StatusOK, okMessage)
}
