package socialRepo

import (
	"context"
	"errors"

	"github.com/raiyanplanet/Wibloo/models"
)

var (
	ErrNotFound  = errors.New("record does not exist")
	ErrNotOwner  = errors.New("caller does not own the record")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepo interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error
	SearchByUsername(ctx context.Context, query string, limit int) ([]models.User, error)
	SearchByName(ctx context.Context, query string, limit int) ([]models.User, error)
	SearchByEmail(ctx context.Context, email string, limit int) ([]models.User, error)
	ListUsers(ctx context.Context, excludeId string, limit int) ([]models.User, error)
	ListAllUsers(ctx context.Context) ([]models.User, error)
}

type PostRepo interface {
	CreatePost(ctx context.Context, post models.Post) (string, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	// DeletePost removes the post, every like and comment referencing it
	// and decrements the author's postsCount, all in one transaction.
	DeletePost(ctx context.Context, postId, actorId string) error
	FeedPosts(ctx context.Context, limit int) ([]models.Post, error)
	SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error)
	PostsByAuthor(ctx context.Context, authorId string) ([]models.Post, error)
}

type LikeRepo interface {
	// ToggleLike flips the (postId, userId) like and reports the new
	// liked state. The like row and the post's likesCount commit together.
	ToggleLike(ctx context.Context, postId, userId string) (bool, error)
	LikesByPost(ctx context.Context, postId string) ([]models.Like, error)
	HasLike(ctx context.Context, postId, userId string) (bool, error)
}

type FollowRepo interface {
	// ToggleFollow flips the (followerId, followingId) edge and adjusts
	// both users' counters in the same transaction.
	ToggleFollow(ctx context.Context, followerId, followingId string) (bool, error)
	Followers(ctx context.Context, userId string) ([]models.Follow, error)
	Following(ctx context.Context, userId string) ([]models.Follow, error)
	HasFollow(ctx context.Context, followerId, followingId string) (bool, error)
}

type CommentRepo interface {
	// CreateComment inserts the comment even when the parent post is
	// missing; the commentsCount bump is skipped in that case.
	CreateComment(ctx context.Context, comment models.Comment) (string, error)
	GetComment(ctx context.Context, id string) (models.Comment, error)
	DeleteComment(ctx context.Context, commentId, actorId string) error
	CommentsByPost(ctx context.Context, postId string) ([]models.Comment, error)
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, message models.Message) (string, error)
	GetMessage(ctx context.Context, id string) (models.Message, error)
	MarkRead(ctx context.Context, messageId, actorId string) error
	// MessagesBetween returns both directions of the (a, b) conversation,
	// oldest first.
	MessagesBetween(ctx context.Context, a, b string) ([]models.Message, error)
	// MessagesInvolving returns every message sent or received by the
	// user, newest first.
	MessagesInvolving(ctx context.Context, userId string) ([]models.Message, error)
}

// SocialRepo is the full entity store surface.
type SocialRepo interface {
	UserRepo
	PostRepo
	LikeRepo
	FollowRepo
	CommentRepo
	MessageRepo
}
