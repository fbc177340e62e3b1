package main

import (
	"context"
	"errors"

	"github.com/raiyanplanet/Wibloo/cachedRepo"
	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

type likeService struct {
	viewBuilder
	likes socialRepo.LikeRepo
	users socialRepo.UserRepo
	posts cachedRepo.CachedRepo
}

func newLikeService(likes socialRepo.LikeRepo, users socialRepo.UserRepo, posts cachedRepo.CachedRepo, views viewBuilder) *likeService {
	return &likeService{viewBuilder: views, likes: likes, users: users, posts: posts}
}

// ToggleLike flips the caller's like on the post and reports the new
// state: true means the post is now liked.
func (s *likeService) ToggleLike(ctx context.Context, postId string) (bool, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return false, errUnauthenticated()
	}
	liked, err := s.likes.ToggleLike(ctx, postId, userId)
	if err != nil {
		return false, mapRepoErr(err, "Post")
	}
	// likesCount changed under the cache.
	s.posts.InvalidatePost(ctx, postId)
	return liked, nil
}

func (s *likeService) GetPostLikes(ctx context.Context, postId string) ([]models.LikeView, error) {
	likes, err := s.likes.LikesByPost(ctx, postId)
	if err != nil {
		return nil, mapRepoErr(err, "Likes")
	}
	views := make([]models.LikeView, 0, len(likes))
	for _, l := range likes {
		view := models.LikeView{Like: l}
		if u, err := s.users.GetUser(ctx, l.UserId); err == nil {
			view.User = s.userView(u)
		} else if !errors.Is(err, socialRepo.ErrNotFound) {
			return nil, mapRepoErr(err, "User")
		}
		views = append(views, view)
	}
	return views, nil
}
