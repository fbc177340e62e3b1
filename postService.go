package main

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raiyanplanet/Wibloo/cachedRepo"
	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

const (
	feedLimit        = 50
	searchPostsLimit = 20
)

type postService struct {
	viewBuilder
	posts cachedRepo.CachedRepo
	likes socialRepo.LikeRepo
	users socialRepo.UserRepo
	blobs BlobStore
}

func newPostService(posts cachedRepo.CachedRepo, likes socialRepo.LikeRepo, users socialRepo.UserRepo, blobs BlobStore, views viewBuilder) *postService {
	return &postService{
		viewBuilder: views,
		posts:       posts,
		likes:       likes,
		users:       users,
		blobs:       blobs,
	}
}

// GenerateUploadURL hands out the write-once upload slot a caller needs
// before createPost.
func (s *postService) GenerateUploadURL(ctx context.Context) (string, error) {
	url, err := s.blobs.GenerateUploadURL(ctx)
	if err != nil {
		return "", status.Error(codes.Internal, "Internal error")
	}
	return url, nil
}

// CreatePost inserts the post and bumps the author's postsCount in one
// transaction. isPublic defaults to true when the caller omits it.
func (s *postService) CreatePost(ctx context.Context, imageId, caption string, isPublic *bool) (string, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return "", errUnauthenticated()
	}
	if imageId == "" {
		return "", status.Error(codes.InvalidArgument, "imageId is required")
	}
	uploaded, err := s.blobs.Exists(ctx, imageId)
	if err != nil {
		return "", status.Error(codes.Internal, "Internal error")
	}
	if !uploaded {
		return "", status.Error(codes.NotFound, "Image not found")
	}

	public := true
	if isPublic != nil {
		public = *isPublic
	}
	id, err := s.posts.CreatePost(ctx, models.Post{
		AuthorId: userId,
		ImageId:  imageId,
		Caption:  caption,
		IsPublic: public,
	})
	if err != nil {
		return "", mapRepoErr(err, "Post")
	}
	return id, nil
}

// DeletePost cascades to every like and comment on the post and
// decrements the author's postsCount; the whole cascade is one
// transaction, so a failed step fails the delete.
func (s *postService) DeletePost(ctx context.Context, postId string) (bool, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return false, errUnauthenticated()
	}
	if err := s.posts.DeletePost(ctx, postId, userId); err != nil {
		return false, mapRepoErr(err, "Post")
	}
	return true, nil
}

// GetPost fetches one post by id, through the cache. Private posts stay
// reachable by direct fetch; only feed and search filter them out.
func (s *postService) GetPost(ctx context.Context, postId string) (*models.PostView, error) {
	userId, _ := userIdFromCtx(ctx)

	post, err := s.posts.GetPost(ctx, postId)
	if err != nil {
		return nil, mapRepoErr(err, "Post")
	}

	var author *models.UserView
	if u, err := s.users.GetUser(ctx, post.AuthorId); err == nil {
		author = s.userView(u)
	} else if !errors.Is(err, socialRepo.ErrNotFound) {
		return nil, mapRepoErr(err, "Author")
	}

	isLiked := false
	if userId != "" {
		liked, err := s.likes.HasLike(ctx, post.Id, userId)
		if err != nil {
			return nil, mapRepoErr(err, "Like")
		}
		isLiked = liked
	}
	view := s.postView(post, author, isLiked)
	return &view, nil
}

func (s *postService) GetFeed(ctx context.Context) ([]models.PostView, error) {
	userId, _ := userIdFromCtx(ctx)

	posts, err := s.posts.FeedPosts(ctx, feedLimit)
	if err != nil {
		return nil, mapRepoErr(err, "Feed")
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		var author *models.UserView
		if u, err := s.users.GetUser(ctx, p.AuthorId); err == nil {
			author = s.userView(u)
		} else if !errors.Is(err, socialRepo.ErrNotFound) {
			return nil, mapRepoErr(err, "Author")
		}

		isLiked := false
		if userId != "" {
			liked, err := s.likes.HasLike(ctx, p.Id, userId)
			if err != nil {
				return nil, mapRepoErr(err, "Like")
			}
			isLiked = liked
		}
		views = append(views, s.postView(p, author, isLiked))
	}
	return views, nil
}

func (s *postService) SearchPosts(ctx context.Context, query string) ([]models.PostView, error) {
	if strings.TrimSpace(query) == "" {
		return []models.PostView{}, nil
	}
	posts, err := s.posts.SearchPosts(ctx, query, searchPostsLimit)
	if err != nil {
		return nil, mapRepoErr(err, "Posts")
	}
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, s.postView(p, nil, false))
	}
	return views, nil
}

func (s *postService) GetUserPosts(ctx context.Context, userId string) ([]models.PostView, error) {
	posts, err := s.posts.PostsByAuthor(ctx, userId)
	if err != nil {
		return nil, mapRepoErr(err, "Posts")
	}
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, s.postView(p, nil, false))
	}
	return views, nil
}

func (s *postService) GetMyPosts(ctx context.Context) ([]models.PostView, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return []models.PostView{}, nil
	}
	return s.GetUserPosts(ctx, userId)
}
