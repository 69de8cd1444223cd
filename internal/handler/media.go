package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"ripplr_backend/internal/httputil"
	"ripplr_backend/internal/model"
	"ripplr_backend/internal/service"
	"ripplr_backend/internal/transport/http/middleware"
)

// MediaHandler serves profile image uploads and presigned post-image
// uploads.
type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadAvatar handles POST /me/avatar (multipart, field "avatar").
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "avatar", model.MaxAvatarSizeBytes, h.mediaService.SetAvatar)
}

// UploadBanner handles POST /me/banner (multipart, field "banner").
func (h *MediaHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "banner", model.MaxBannerSizeBytes, h.mediaService.SetBanner)
}

// PresignPostImage handles POST /media/presign.
func (h *MediaHandler) PresignPostImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.PresignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.mediaService.PresignPostImageUpload(r.Context(), &req)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

type uploadFn func(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)

func (h *MediaHandler) upload(w http.ResponseWriter, r *http.Request, field string, maxSize int64, fn uploadFn) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := maxSize + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Upload exceeds size limit")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		httputil.WriteBadRequest(w, "Missing file upload")
		return
	}
	defer file.Close()

	result, err := fn(r.Context(), userID, file, header)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *MediaHandler) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Upload exceeds size limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	default:
		log.Printf("[MediaHandler] Upload failed: %v", err)
		httputil.WriteInternalError(w, "Failed to process upload")
	}
}
