package cachedRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

const (
	postTTL = 5 * time.Minute
	feedTTL = 30 * time.Second

	feedKey = "feed:public"
)

type redisRepo struct {
	repo        socialRepo.PostRepo // persistent store
	redisClient *redis.Client
}

func NewRedisRepo(repo socialRepo.PostRepo, addr, pass string, poolSize int) CachedRepo {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		PoolSize: poolSize,
	})
	return &redisRepo{
		repo:        repo,
		redisClient: client,
	}
}

func postKey(id string) string {
	return fmt.Sprintf("post:%v", id)
}

func (rs *redisRepo) CreatePost(ctx context.Context, post models.Post) (string, error) {
	id, err := rs.repo.CreatePost(ctx, post)
	if err != nil {
		return "", err
	}
	// New public posts change what the feed shows.
	if err := rs.redisClient.Del(ctx, feedKey).Err(); err != nil {
		zap.S().Warnf("failed to drop feed cache after create: %v", err)
	}
	return id, nil
}

func (rs *redisRepo) GetPost(ctx context.Context, id string) (models.Post, error) {
	val, err := rs.redisClient.Get(ctx, postKey(id)).Result()
	if err == nil {
		var p models.Post
		if err := json.Unmarshal([]byte(val), &p); err == nil {
			return p, nil
		}
		zap.S().Warnf("dropping unreadable cache entry for post %v", id)
		rs.redisClient.Del(ctx, postKey(id))
	} else if err != redis.Nil {
		zap.S().Warnf("redis get post %v: %v", id, err)
	}

	p, err := rs.repo.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := rs.redisClient.Set(ctx, postKey(id), data, postTTL).Err(); err != nil {
			zap.S().Warnf("redis set post %v: %v", id, err)
		}
	}
	return p, nil
}

func (rs *redisRepo) DeletePost(ctx context.Context, postId, actorId string) error {
	if err := rs.repo.DeletePost(ctx, postId, actorId); err != nil {
		return err
	}
	// If the invalidation fails readers can briefly see a deleted post
	// until the TTL runs out. Log and move on.
	if err := rs.redisClient.Del(ctx, postKey(postId), feedKey).Err(); err != nil {
		zap.S().Warnf("failed to drop cache for deleted post %v: %v", postId, err)
	}
	return nil
}

func (rs *redisRepo) FeedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	val, err := rs.redisClient.Get(ctx, feedKey).Result()
	if err == nil {
		var posts []models.Post
		if err := json.Unmarshal([]byte(val), &posts); err == nil {
			if len(posts) > limit {
				posts = posts[:limit]
			}
			return posts, nil
		}
		rs.redisClient.Del(ctx, feedKey)
	} else if err != redis.Nil {
		zap.S().Warnf("redis get feed: %v", err)
	}

	posts, err := rs.repo.FeedPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(posts); err == nil {
		if err := rs.redisClient.Set(ctx, feedKey, data, feedTTL).Err(); err != nil {
			zap.S().Warnf("redis set feed: %v", err)
		}
	}
	return posts, nil
}

func (rs *redisRepo) SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error) {
	// no caching for searches now
	return rs.repo.SearchPosts(ctx, query, limit)
}

func (rs *redisRepo) PostsByAuthor(ctx context.Context, authorId string) ([]models.Post, error) {
	return rs.repo.PostsByAuthor(ctx, authorId)
}

func (rs *redisRepo) InvalidatePost(ctx context.Context, id string) {
	if err := rs.redisClient.Del(ctx, postKey(id), feedKey).Err(); err != nil {
		zap.S().Warnf("failed to invalidate post %v: %v", id, err)
	}
}

func (rs *redisRepo) Close() error {
	return rs.redisClient.Close()
}
