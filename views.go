package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

// BlobStore is the slice of the blob subsystem the services touch.
type BlobStore interface {
	GenerateUploadURL(ctx context.Context) (string, error)
	Exists(ctx context.Context, id string) (bool, error)
	ResolveURL(id string) string
}

// viewBuilder turns stored entities into response views with blob
// references resolved to retrievable URLs.
type viewBuilder struct {
	blobs BlobStore
}

func (v viewBuilder) userView(u models.User) *models.UserView {
	return &models.UserView{
		User:      u,
		AvatarUrl: v.blobs.ResolveURL(u.AvatarId),
	}
}

func (v viewBuilder) userViews(users []models.User) []models.UserView {
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, *v.userView(u))
	}
	return views
}

func (v viewBuilder) postView(p models.Post, author *models.UserView, isLiked bool) models.PostView {
	return models.PostView{
		Post:     p,
		Author:   author,
		ImageUrl: v.blobs.ResolveURL(p.ImageId),
		IsLiked:  isLiked,
	}
}

// mapRepoErr translates storage sentinels into the caller-facing
// taxonomy. Anything unexpected is logged and surfaced as Internal.
func mapRepoErr(err error, entity string) error {
	switch {
	case errors.Is(err, socialRepo.ErrNotFound):
		return status.Error(codes.NotFound, entity+" not found")
	case errors.Is(err, socialRepo.ErrNotOwner):
		return status.Error(codes.PermissionDenied, "Not authorized")
	case errors.Is(err, socialRepo.ErrDuplicate):
		return status.Error(codes.AlreadyExists, entity+" already exists")
	default:
		zap.S().Errorf("storage error on %v: %v", entity, err)
		return status.Error(codes.Internal, "Internal error")
	}
}

func errUnauthenticated() error {
	return status.Error(codes.Unauthenticated, "Not authenticated")
}
