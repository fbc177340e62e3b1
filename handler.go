package main

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raiyanplanet/Wibloo/models"
)

type Handler struct {
	auth     *authService
	users    *userService
	posts    *postService
	likes    *likeService
	follows  *followService
	comments *commentService
	messages *messageService
}

func NewHandler(auth *authService, users *userService, posts *postService, likes *likeService,
	follows *followService, comments *commentService, messages *messageService) *Handler {
	return &Handler{
		auth:     auth,
		users:    users,
		posts:    posts,
		likes:    likes,
		follows:  follows,
		comments: comments,
		messages: messages,
	}
}

func codeToHTTPStatus(code codes.Code) int {
	switch code {
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	http.Error(w, st.Message(), codeToHTTPStatus(st.Code()))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// ---- auth ----

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"userId": id})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

// ---- posts ----

func (h *Handler) GenerateUploadUrl(w http.ResponseWriter, r *http.Request) {
	url, err := h.posts.GenerateUploadURL(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"uploadUrl": url})
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageId  string `json:"imageId"`
		Caption  string `json:"caption"`
		IsPublic *bool  `json:"isPublic"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.posts.CreatePost(r.Context(), req.ImageId, req.Caption, req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"postId": id})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ok, err := h.posts.DeletePost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": ok})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, post)
}

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.posts.GetFeed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, feed)
}

func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.SearchPosts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, posts)
}

func (h *Handler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.GetUserPosts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, posts)
}

func (h *Handler) GetMyPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.GetMyPosts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, posts)
}

// ---- likes ----

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, err := h.likes.ToggleLike(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"liked": liked})
}

func (h *Handler) GetPostLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.likes.GetPostLikes(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, likes)
}

// ---- comments ----

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.comments.AddComment(r.Context(), r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"commentId": id})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ok, err := h.comments.DeleteComment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": ok})
}

func (h *Handler) GetPostComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.GetPostComments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, comments)
}

// ---- follows ----

func (h *Handler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	following, err := h.follows.ToggleFollow(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"following": following})
}

func (h *Handler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	followers, err := h.follows.GetFollowers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, followers)
}

func (h *Handler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.follows.GetFollowing(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, following)
}

func (h *Handler) IsFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.follows.IsFollowing(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"isFollowing": following})
}

// ---- messages ----

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReceiverId string `json:"receiverId"`
		Content    string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.messages.SendMessage(r.Context(), req.ReceiverId, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"messageId": id})
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.GetMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, messages)
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.messages.GetConversations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, conversations)
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	ok, err := h.messages.MarkAsRead(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": ok})
}

// ---- users ----

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetCurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) GetUserById(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserById(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users)
}

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users)
}

func (h *Handler) GetSuggestedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetSuggestedUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Username    *string `json:"username"`
		Bio         *string `json:"bio"`
		DateOfBirth *string `json:"dateOfBirth"`
		Website     *string `json:"website"`
		Location    *string `json:"location"`
		Avatar      *string `json:"avatar"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.users.UpdateProfile(r.Context(), models.ProfilePatch{
		Name:        req.Name,
		Username:    req.Username,
		Bio:         req.Bio,
		DateOfBirth: req.DateOfBirth,
		Website:     req.Website,
		Location:    req.Location,
		AvatarId:    req.Avatar,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"userId": id})
}
