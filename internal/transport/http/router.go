package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ripplr_backend/internal/handler"
	"ripplr_backend/internal/httputil"
	authmw "ripplr_backend/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	FeedHandler         *handler.FeedHandler
	PostHandler         *handler.PostHandler
	EngagementHandler   *handler.EngagementHandler
	MediaHandler        *handler.MediaHandler
	NotificationHandler *handler.NotificationHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Post("/users", cfg.UserHandler.Register)
	r.Post("/users/authenticate", cfg.UserHandler.Authenticate)
	r.Post("/auth/refresh", cfg.AuthHandler.Refresh)
	r.Post("/auth/logout", cfg.AuthHandler.Logout)

	// Public post reads with optional authentication for viewer flags
	r.With(authmw.OptionalAuth(cfg.JWTSecret)).Get("/posts/{id}", cfg.PostHandler.Get)
	r.With(authmw.OptionalAuth(cfg.JWTSecret)).Get("/users/{username}/posts", cfg.PostHandler.GetUserPosts)
	r.With(authmw.OptionalAuth(cfg.JWTSecret)).Get("/users/{username}/followers", cfg.FollowHandler.GetFollowers)
	r.With(authmw.OptionalAuth(cfg.JWTSecret)).Get("/users/{username}/following", cfg.FollowHandler.GetFollowing)

	// Protected routes - require a valid access token
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/me/avatar", cfg.MediaHandler.UploadAvatar)
		r.Post("/me/banner", cfg.MediaHandler.UploadBanner)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Profile reads and guarded mutations
		r.Get("/users", cfg.UserHandler.Search)
		r.Get("/users/{username}", cfg.UserHandler.GetProfile)
		r.Get("/users/{username}/activity", cfg.UserHandler.GetActivity)
		r.Patch("/users/{username}", cfg.UserHandler.Update)
		r.Delete("/users/{username}", cfg.UserHandler.Delete)

		// Follow graph
		r.Post("/users/{username}/follow", cfg.FollowHandler.Follow)
		r.Delete("/users/{username}/follow", cfg.FollowHandler.Unfollow)

		// Home feed
		r.Get("/feed", cfg.FeedHandler.GetFeed)

		// Posts and engagement
		r.Post("/posts", cfg.PostHandler.Create)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/like", cfg.EngagementHandler.Like)
		r.Delete("/posts/{id}/like", cfg.EngagementHandler.Unlike)
		r.Post("/posts/{id}/share", cfg.EngagementHandler.Share)
		r.Delete("/posts/{id}/share", cfg.EngagementHandler.Unshare)

		// Media
		r.Post("/media/presign", cfg.MediaHandler.PresignPostImage)

		// Notifications
		r.Get("/notifications", cfg.NotificationHandler.List)
		r.Post("/notifications/read", cfg.NotificationHandler.MarkRead)
	})

	return r
}
