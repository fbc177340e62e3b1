package main

import (
	"context"
	"errors"
	"strings"

	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

const (
	searchUsernameLimit = 10
	searchNameLimit     = 10
	searchEmailLimit    = 5
	searchUsersLimit    = 20
	allUsersLimit       = 50
	suggestedUsersLimit = 5
)

type userService struct {
	viewBuilder
	users   socialRepo.UserRepo
	follows socialRepo.FollowRepo
}

func newUserService(users socialRepo.UserRepo, follows socialRepo.FollowRepo, views viewBuilder) *userService {
	return &userService{viewBuilder: views, users: users, follows: follows}
}

// GetCurrentUser resolves the caller's own profile, or nil when the
// request carries no identity.
func (s *userService) GetCurrentUser(ctx context.Context) (*models.UserView, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return nil, nil
	}
	user, err := s.users.GetUser(ctx, userId)
	if err != nil {
		if errors.Is(err, socialRepo.ErrNotFound) {
			return nil, nil
		}
		return nil, mapRepoErr(err, "User")
	}
	return s.userView(user), nil
}

func (s *userService) GetUserById(ctx context.Context, userId string) (*models.UserView, error) {
	user, err := s.users.GetUser(ctx, userId)
	if err != nil {
		if errors.Is(err, socialRepo.ErrNotFound) {
			return nil, nil
		}
		return nil, mapRepoErr(err, "User")
	}
	return s.userView(user), nil
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*models.UserView, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, socialRepo.ErrNotFound) {
			return nil, nil
		}
		return nil, mapRepoErr(err, "User")
	}
	return s.userView(user), nil
}

// mergeUsers concatenates independent lookup results and de-duplicates
// by id, first occurrence winning. Precedence is the order of the input
// slices: username match, then name range, then exact email.
func mergeUsers(limit int, lists ...[]models.User) []models.User {
	seen := make(map[string]struct{})
	var merged []models.User
	for _, list := range lists {
		for _, u := range list {
			if _, dup := seen[u.Id]; dup {
				continue
			}
			seen[u.Id] = struct{}{}
			merged = append(merged, u)
			if len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}

func (s *userService) SearchUsers(ctx context.Context, query string) ([]models.UserView, error) {
	if strings.TrimSpace(query) == "" {
		return []models.UserView{}, nil
	}

	byUsername, err := s.users.SearchByUsername(ctx, query, searchUsernameLimit)
	if err != nil {
		return nil, mapRepoErr(err, "User search")
	}
	byName, err := s.users.SearchByName(ctx, strings.ToLower(query), searchNameLimit)
	if err != nil {
		return nil, mapRepoErr(err, "User search")
	}
	byEmail, err := s.users.SearchByEmail(ctx, query, searchEmailLimit)
	if err != nil {
		return nil, mapRepoErr(err, "User search")
	}

	merged := mergeUsers(searchUsersLimit, byUsername, byName, byEmail)
	return s.userViews(merged), nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]models.UserView, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return []models.UserView{}, nil
	}
	users, err := s.users.ListUsers(ctx, userId, allUsersLimit)
	if err != nil {
		return nil, mapRepoErr(err, "Users")
	}
	return s.userViews(users), nil
}

// GetSuggestedUsers filters the whole user set against the caller's
// follow edges. Full scan; fine at this data scale, revisit before it
// isn't.
func (s *userService) GetSuggestedUsers(ctx context.Context) ([]models.UserView, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return []models.UserView{}, nil
	}

	following, err := s.follows.Following(ctx, userId)
	if err != nil {
		return nil, mapRepoErr(err, "Follows")
	}
	excluded := make(map[string]struct{}, len(following)+1)
	for _, f := range following {
		excluded[f.FollowingId] = struct{}{}
	}
	excluded[userId] = struct{}{}

	users, err := s.users.ListAllUsers(ctx)
	if err != nil {
		return nil, mapRepoErr(err, "Users")
	}

	suggested := make([]models.UserView, 0, suggestedUsersLimit)
	for _, u := range users {
		if _, skip := excluded[u.Id]; skip {
			continue
		}
		suggested = append(suggested, *s.userView(u))
		if len(suggested) == suggestedUsersLimit {
			break
		}
	}
	return suggested, nil
}

// UpdateProfile applies only the fields the caller supplied. A field
// that is present but empty clears the column; an absent field is left
// alone.
func (s *userService) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (string, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return "", errUnauthenticated()
	}
	if err := s.users.UpdateProfile(ctx, userId, patch); err != nil {
		return "", mapRepoErr(err, "User")
	}
	return userId, nil
}
