package main

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

type followService struct {
	viewBuilder
	follows socialRepo.FollowRepo
	users   socialRepo.UserRepo
}

func newFollowService(follows socialRepo.FollowRepo, users socialRepo.UserRepo, views viewBuilder) *followService {
	return &followService{viewBuilder: views, follows: follows, users: users}
}

// ToggleFollow flips the follow edge from the caller to the target and
// reports the new state. The edge and both counters commit together.
func (s *followService) ToggleFollow(ctx context.Context, targetId string) (bool, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return false, errUnauthenticated()
	}
	if userId == targetId {
		return false, status.Error(codes.InvalidArgument, "Cannot follow yourself")
	}
	following, err := s.follows.ToggleFollow(ctx, userId, targetId)
	if err != nil {
		return false, mapRepoErr(err, "User")
	}
	return following, nil
}

func (s *followService) GetFollowers(ctx context.Context, userId string) ([]models.UserView, error) {
	follows, err := s.follows.Followers(ctx, userId)
	if err != nil {
		return nil, mapRepoErr(err, "Follows")
	}
	return s.followUsers(ctx, follows, func(f models.Follow) string { return f.FollowerId })
}

func (s *followService) GetFollowing(ctx context.Context, userId string) ([]models.UserView, error) {
	follows, err := s.follows.Following(ctx, userId)
	if err != nil {
		return nil, mapRepoErr(err, "Follows")
	}
	return s.followUsers(ctx, follows, func(f models.Follow) string { return f.FollowingId })
}

func (s *followService) followUsers(ctx context.Context, follows []models.Follow, side func(models.Follow) string) ([]models.UserView, error) {
	views := make([]models.UserView, 0, len(follows))
	for _, f := range follows {
		u, err := s.users.GetUser(ctx, side(f))
		if err != nil {
			if errors.Is(err, socialRepo.ErrNotFound) {
				continue
			}
			return nil, mapRepoErr(err, "User")
		}
		views = append(views, *s.userView(u))
	}
	return views, nil
}

func (s *followService) IsFollowing(ctx context.Context, targetId string) (bool, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return false, nil
	}
	following, err := s.follows.HasFollow(ctx, userId, targetId)
	if err != nil {
		return false, mapRepoErr(err, "Follow")
	}
	return following, nil
}
