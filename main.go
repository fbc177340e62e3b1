package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/raiyanplanet/Wibloo/blobstore"
	"github.com/raiyanplanet/Wibloo/cachedRepo"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

func main() {
	InitLogger()
	defer zap.L().Sync()

	secrets, err := LoadConfig()
	if err != nil {
		zap.S().Fatalf("Failed to load configuration: %v", err)
	}
	appConfig, err := LoadAppConfig("config.yaml")
	if err != nil {
		zap.S().Fatalf("Failed to load config.yaml: %v", err)
	}

	db := InitDB(secrets)
	repo := socialRepo.NewPostgresRepo(db)
	posts := cachedRepo.NewRedisRepo(repo, appConfig.Redis.Addr, secrets.RedisPassword, appConfig.Redis.PoolSize)
	defer posts.Close()

	blobs, err := blobstore.New(db,
		appConfig.Blob.Dir,
		appConfig.Server.PublicURL,
		secrets.JWTSecret,
		time.Duration(appConfig.Blob.UploadTTL),
		time.Duration(appConfig.Blob.DownloadTTL),
		appConfig.Blob.MaxSizeBytes,
	)
	if err != nil {
		zap.S().Fatalf("Failed to initialize blob store: %v", err)
	}

	var limiter *RateLimiter
	if appConfig.RateLimiting.Enabled {
		limiter, err = NewRateLimiter(appConfig.RateLimiting, appConfig.Redis.Addr, secrets.RedisPassword, appConfig.Redis.PoolSize)
		if err != nil {
			zap.S().Fatalf("Failed to initialize rate limiter: %v", err)
		}
		defer limiter.close()
	}

	views := viewBuilder{blobs: blobs}
	handler := NewHandler(
		newAuthService(repo, secrets),
		newUserService(repo, repo, views),
		newPostService(posts, repo, repo, blobs, views),
		newLikeService(repo, repo, posts, views),
		newFollowService(repo, repo, views),
		newCommentService(repo, repo, posts, views),
		newMessageService(repo, repo, views),
	)

	server := NewServer(handler, blobs, limiter, appConfig, secrets)
	zap.S().Fatal(server.start())
}
