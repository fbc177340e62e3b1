package main

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/raiyanplanet/Wibloo/blobstore"
	"github.com/raiyanplanet/Wibloo/metrics"
	"github.com/raiyanplanet/Wibloo/models"
)

type route struct {
	Method      string
	Path        string
	Handler     http.HandlerFunc
	RequireAuth bool
	RateLimit   bool
}

type Server struct {
	config  *models.AppConfig
	secrets models.Config
	router  *http.ServeMux
	handler *Handler
	blobs   *blobstore.Store
	limiter *RateLimiter
}

func NewServer(handler *Handler, blobs *blobstore.Store, limiter *RateLimiter, config *models.AppConfig, secrets models.Config) *Server {
	server := &Server{
		config:  config,
		secrets: secrets,
		router:  http.NewServeMux(),
		handler: handler,
		blobs:   blobs,
		limiter: limiter,
	}
	server.addRoutes()
	return server
}

func (s *Server) start() error {
	httpServer := &http.Server{
		Addr:    net.JoinHostPort(s.config.Server.Host, s.config.Server.Port),
		Handler: s.router,
	}
	zap.S().Infof("Server starting on %s:%s", s.config.Server.Host, s.config.Server.Port)
	return httpServer.ListenAndServe()
}

// routes is the full external interface. Mutations require an identity;
// queries resolve one when present and degrade to anonymous otherwise.
func (s *Server) routes() []route {
	h := s.handler
	return []route{
		{"POST", "/api/register", h.Register, false, true},
		{"POST", "/api/login", h.Login, false, true},

		{"POST", "/api/uploads", h.GenerateUploadUrl, false, true},
		{"POST", "/api/posts", h.CreatePost, true, true},
		{"DELETE", "/api/posts/{id}", h.DeletePost, true, true},
		{"GET", "/api/posts/{id}", h.GetPost, false, false},
		{"GET", "/api/feed", h.GetFeed, false, false},
		{"GET", "/api/posts/search", h.SearchPosts, false, false},
		{"GET", "/api/users/{id}/posts", h.GetUserPosts, false, false},
		{"GET", "/api/me/posts", h.GetMyPosts, false, false},

		{"POST", "/api/posts/{id}/like", h.ToggleLike, true, true},
		{"GET", "/api/posts/{id}/likes", h.GetPostLikes, false, false},

		{"POST", "/api/posts/{id}/comments", h.AddComment, true, true},
		{"DELETE", "/api/comments/{id}", h.DeleteComment, true, true},
		{"GET", "/api/posts/{id}/comments", h.GetPostComments, false, false},

		{"POST", "/api/users/{id}/follow", h.ToggleFollow, true, true},
		{"GET", "/api/users/{id}/followers", h.GetFollowers, false, false},
		{"GET", "/api/users/{id}/following", h.GetFollowing, false, false},
		{"GET", "/api/users/{id}/is-following", h.IsFollowing, false, false},

		{"POST", "/api/messages", h.SendMessage, true, true},
		{"GET", "/api/messages/{id}", h.GetMessages, false, false},
		{"GET", "/api/conversations", h.GetConversations, false, false},
		{"POST", "/api/messages/{id}/read", h.MarkAsRead, true, true},

		{"GET", "/api/me", h.GetCurrentUser, false, false},
		{"PATCH", "/api/me", h.UpdateProfile, true, true},
		{"GET", "/api/users", h.GetAllUsers, false, false},
		{"GET", "/api/users/suggested", h.GetSuggestedUsers, false, false},
		{"GET", "/api/users/search", h.SearchUsers, false, false},
		{"GET", "/api/users/by-username/{username}", h.GetUserByUsername, false, false},
		{"GET", "/api/users/{id}", h.GetUserById, false, false},
	}
}

func (s *Server) addRoutes() {
	for _, rt := range s.routes() {
		var handler http.Handler = rt.Handler
		// The limiter sits inside auth so its per-user rule can see the
		// resolved identity.
		if rt.RateLimit && s.config.RateLimiting.Enabled {
			handler = rateLimitMiddleware(handler, s.limiter)
		}
		handler = authMiddleware(handler, s.secrets, rt.RequireAuth)
		handler = loggingMiddleware(handler)
		handler = metricsMiddleware(rt.Method+" "+rt.Path, handler)
		s.router.Handle(rt.Method+" "+rt.Path, handler)
	}

	// Blob transfer endpoints authenticate through their signed tokens
	// rather than the bearer token.
	s.router.HandleFunc("PUT /upload", s.blobs.HandleUpload)
	s.router.HandleFunc("GET /files/{id}", s.blobs.HandleDownload)

	s.router.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
