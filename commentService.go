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

type commentService struct {
	viewBuilder
	comments socialRepo.CommentRepo
	users    socialRepo.UserRepo
	posts    cachedRepo.CachedRepo
}

func newCommentService(comments socialRepo.CommentRepo, users socialRepo.UserRepo, posts cachedRepo.CachedRepo, views viewBuilder) *commentService {
	return &commentService{viewBuilder: views, comments: comments, users: users, posts: posts}
}

// AddComment inserts the comment and bumps the parent's commentsCount.
// A missing parent is tolerated: the comment still lands, the counter
// is left alone.
func (s *commentService) AddComment(ctx context.Context, postId, content string) (string, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return "", errUnauthenticated()
	}
	if strings.TrimSpace(content) == "" {
		return "", status.Error(codes.InvalidArgument, "Comment content cannot be empty")
	}
	id, err := s.comments.CreateComment(ctx, models.Comment{
		PostId:   postId,
		AuthorId: userId,
		Content:  content,
	})
	if err != nil {
		return "", mapRepoErr(err, "Comment")
	}
	s.posts.InvalidatePost(ctx, postId)
	return id, nil
}

func (s *commentService) DeleteComment(ctx context.Context, commentId string) (bool, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return false, errUnauthenticated()
	}
	comment, err := s.comments.GetComment(ctx, commentId)
	if err != nil {
		return false, mapRepoErr(err, "Comment")
	}
	if err := s.comments.DeleteComment(ctx, commentId, userId); err != nil {
		return false, mapRepoErr(err, "Comment")
	}
	s.posts.InvalidatePost(ctx, comment.PostId)
	return true, nil
}

func (s *commentService) GetPostComments(ctx context.Context, postId string) ([]models.CommentView, error) {
	comments, err := s.comments.CommentsByPost(ctx, postId)
	if err != nil {
		return nil, mapRepoErr(err, "Comments")
	}
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		view := models.CommentView{Comment: c}
		if u, err := s.users.GetUser(ctx, c.AuthorId); err == nil {
			view.Author = s.userView(u)
		} else if !errors.Is(err, socialRepo.ErrNotFound) {
			return nil, mapRepoErr(err, "User")
		}
		views = append(views, view)
	}
	return views, nil
}
