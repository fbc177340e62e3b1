package main

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

// fakeRepo is an in-memory SocialRepo honouring the storage contract:
// unique like/follow pairs, floored counters, cascading post deletes.
type fakeRepo struct {
	users    map[string]models.User
	posts    map[string]models.Post
	likes    map[string]models.Like
	comments map[string]models.Comment
	follows  map[string]models.Follow
	messages map[string]models.Message
	clock    time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]models.User),
		posts:    make(map[string]models.Post),
		likes:    make(map[string]models.Like),
		comments: make(map[string]models.Comment),
		follows:  make(map[string]models.Follow),
		messages: make(map[string]models.Message),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRepo) addUser(username string) string {
	id := uuid.NewString()
	f.users[id] = models.User{
		Id:        id,
		Name:      username,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: f.tick(),
	}
	return id
}

func (f *fakeRepo) addPost(authorId string, public bool) string {
	id, _ := f.CreatePost(context.Background(), models.Post{
		AuthorId: authorId,
		ImageId:  "img-" + id8(),
		IsPublic: public,
	})
	return id
}

func id8() string { return uuid.NewString()[:8] }

// ---- users ----

func (f *fakeRepo) CreateUser(ctx context.Context, user models.User) (string, error) {
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return "", socialRepo.ErrDuplicate
		}
	}
	id := uuid.NewString()
	user.Id = id
	user.CreatedAt = f.tick()
	f.users[id] = user
	return id, nil
}

func (f *fakeRepo) GetUser(ctx context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, socialRepo.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, socialRepo.ErrNotFound
}

func (f *fakeRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, socialRepo.ErrNotFound
}

func (f *fakeRepo) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	u, ok := f.users[id]
	if !ok {
		return socialRepo.ErrNotFound
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&u.Name, patch.Name)
	apply(&u.Username, patch.Username)
	apply(&u.Bio, patch.Bio)
	apply(&u.DateOfBirth, patch.DateOfBirth)
	apply(&u.Website, patch.Website)
	apply(&u.Location, patch.Location)
	apply(&u.AvatarId, patch.AvatarId)
	f.users[id] = u
	return nil
}

func (f *fakeRepo) sortedUsers() []models.User {
	users := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

func (f *fakeRepo) SearchByUsername(ctx context.Context, query string, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range f.sortedUsers() {
		if strings.HasPrefix(u.Username, query) {
			out = append(out, u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) SearchByName(ctx context.Context, query string, limit int) ([]models.User, error) {
	hi := query + "￿"
	var out []models.User
	for _, u := range f.sortedUsers() {
		if u.Name >= query && u.Name < hi {
			out = append(out, u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) SearchByEmail(ctx context.Context, email string, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range f.sortedUsers() {
		if u.Email == email {
			out = append(out, u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) ListUsers(ctx context.Context, excludeId string, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range f.sortedUsers() {
		if u.Id == excludeId {
			continue
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAllUsers(ctx context.Context) ([]models.User, error) {
	return f.sortedUsers(), nil
}

// ---- posts ----

func (f *fakeRepo) CreatePost(ctx context.Context, post models.Post) (string, error) {
	id := uuid.NewString()
	post.Id = id
	post.CreatedAt = f.tick()
	f.posts[id] = post
	if author, ok := f.users[post.AuthorId]; ok {
		author.PostsCount++
		f.users[post.AuthorId] = author
	}
	return id, nil
}

func (f *fakeRepo) GetPost(ctx context.Context, id string) (models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return models.Post{}, socialRepo.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) DeletePost(ctx context.Context, postId, actorId string) error {
	p, ok := f.posts[postId]
	if !ok {
		return socialRepo.ErrNotFound
	}
	if p.AuthorId != actorId {
		return socialRepo.ErrNotOwner
	}
	for id, l := range f.likes {
		if l.PostId == postId {
			delete(f.likes, id)
		}
	}
	for id, c := range f.comments {
		if c.PostId == postId {
			delete(f.comments, id)
		}
	}
	delete(f.posts, postId)
	if author, ok := f.users[p.AuthorId]; ok {
		author.PostsCount = floor(author.PostsCount - 1)
		f.users[p.AuthorId] = author
	}
	return nil
}

func floor(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func (f *fakeRepo) sortedPosts(desc bool) []models.Post {
	posts := make([]models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if desc {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts
}

func (f *fakeRepo) FeedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.sortedPosts(true) {
		if !p.IsPublic {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.sortedPosts(true) {
		if !p.IsPublic || !strings.Contains(p.Caption, query) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) PostsByAuthor(ctx context.Context, authorId string) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.sortedPosts(true) {
		if p.AuthorId == authorId {
			out = append(out, p)
		}
	}
	return out, nil
}

// ---- likes ----

func (f *fakeRepo) ToggleLike(ctx context.Context, postId, userId string) (bool, error) {
	p, ok := f.posts[postId]
	if !ok {
		return false, socialRepo.ErrNotFound
	}
	for id, l := range f.likes {
		if l.PostId == postId && l.UserId == userId {
			delete(f.likes, id)
			p.LikesCount = floor(p.LikesCount - 1)
			f.posts[postId] = p
			return false, nil
		}
	}
	id := uuid.NewString()
	f.likes[id] = models.Like{Id: id, PostId: postId, UserId: userId, CreatedAt: f.tick()}
	p.LikesCount++
	f.posts[postId] = p
	return true, nil
}

func (f *fakeRepo) LikesByPost(ctx context.Context, postId string) ([]models.Like, error) {
	var out []models.Like
	for _, l := range f.likes {
		if l.PostId == postId {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) HasLike(ctx context.Context, postId, userId string) (bool, error) {
	for _, l := range f.likes {
		if l.PostId == postId && l.UserId == userId {
			return true, nil
		}
	}
	return false, nil
}

// ---- follows ----

func (f *fakeRepo) ToggleFollow(ctx context.Context, followerId, followingId string) (bool, error) {
	follower, ok := f.users[followerId]
	if !ok {
		return false, socialRepo.ErrNotFound
	}
	target, ok := f.users[followingId]
	if !ok {
		return false, socialRepo.ErrNotFound
	}
	for id, edge := range f.follows {
		if edge.FollowerId == followerId && edge.FollowingId == followingId {
			delete(f.follows, id)
			follower.FollowingCount = floor(follower.FollowingCount - 1)
			target.FollowersCount = floor(target.FollowersCount - 1)
			f.users[followerId] = follower
			f.users[followingId] = target
			return false, nil
		}
	}
	id := uuid.NewString()
	f.follows[id] = models.Follow{Id: id, FollowerId: followerId, FollowingId: followingId, CreatedAt: f.tick()}
	follower.FollowingCount++
	target.FollowersCount++
	f.users[followerId] = follower
	f.users[followingId] = target
	return true, nil
}

func (f *fakeRepo) Followers(ctx context.Context, userId string) ([]models.Follow, error) {
	var out []models.Follow
	for _, edge := range f.follows {
		if edge.FollowingId == userId {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) Following(ctx context.Context, userId string) ([]models.Follow, error) {
	var out []models.Follow
	for _, edge := range f.follows {
		if edge.FollowerId == userId {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) HasFollow(ctx context.Context, followerId, followingId string) (bool, error) {
	for _, edge := range f.follows {
		if edge.FollowerId == followerId && edge.FollowingId == followingId {
			return true, nil
		}
	}
	return false, nil
}

// ---- comments ----

func (f *fakeRepo) CreateComment(ctx context.Context, comment models.Comment) (string, error) {
	id := uuid.NewString()
	comment.Id = id
	comment.CreatedAt = f.tick()
	f.comments[id] = comment
	if p, ok := f.posts[comment.PostId]; ok {
		p.CommentsCount++
		f.posts[comment.PostId] = p
	}
	return id, nil
}

func (f *fakeRepo) GetComment(ctx context.Context, id string) (models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return models.Comment{}, socialRepo.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) DeleteComment(ctx context.Context, commentId, actorId string) error {
	c, ok := f.comments[commentId]
	if !ok {
		return socialRepo.ErrNotFound
	}
	if c.AuthorId != actorId {
		return socialRepo.ErrNotOwner
	}
	delete(f.comments, commentId)
	if p, ok := f.posts[c.PostId]; ok {
		p.CommentsCount = floor(p.CommentsCount - 1)
		f.posts[c.PostId] = p
	}
	return nil
}

func (f *fakeRepo) CommentsByPost(ctx context.Context, postId string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range f.comments {
		if c.PostId == postId {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- messages ----

func (f *fakeRepo) CreateMessage(ctx context.Context, message models.Message) (string, error) {
	id := uuid.NewString()
	message.Id = id
	message.CreatedAt = f.tick()
	f.messages[id] = message
	return id, nil
}

func (f *fakeRepo) GetMessage(ctx context.Context, id string) (models.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return models.Message{}, socialRepo.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, messageId, actorId string) error {
	m, ok := f.messages[messageId]
	if !ok {
		return socialRepo.ErrNotFound
	}
	if m.ReceiverId != actorId {
		return socialRepo.ErrNotOwner
	}
	m.IsRead = true
	f.messages[messageId] = m
	return nil
}

func (f *fakeRepo) sortedMessages(desc bool) []models.Message {
	messages := make([]models.Message, 0, len(f.messages))
	for _, m := range f.messages {
		messages = append(messages, m)
	}
	sort.Slice(messages, func(i, j int) bool {
		if desc {
			return messages[i].CreatedAt.After(messages[j].CreatedAt)
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages
}

func (f *fakeRepo) MessagesBetween(ctx context.Context, a, b string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.sortedMessages(false) {
		if (m.SenderId == a && m.ReceiverId == b) || (m.SenderId == b && m.ReceiverId == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MessagesInvolving(ctx context.Context, userId string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.sortedMessages(true) {
		if m.SenderId == userId || m.ReceiverId == userId {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeCached exposes the fake posts through the CachedRepo surface and
// records invalidations.
type fakeCached struct {
	*fakeRepo
	invalidated []string
}

func (f *fakeCached) InvalidatePost(ctx context.Context, id string) {
	f.invalidated = append(f.invalidated, id)
}

func (f *fakeCached) Close() error { return nil }

// fakeBlobs resolves references to deterministic URLs.
type fakeBlobs struct {
	uploaded map[string]bool
}

func newFakeBlobs(ids ...string) *fakeBlobs {
	b := &fakeBlobs{uploaded: make(map[string]bool)}
	for _, id := range ids {
		b.uploaded[id] = true
	}
	return b
}

func (b *fakeBlobs) GenerateUploadURL(ctx context.Context) (string, error) {
	return "https://blobs.test/upload?token=tok", nil
}

func (b *fakeBlobs) Exists(ctx context.Context, id string) (bool, error) {
	return b.uploaded[id], nil
}

func (b *fakeBlobs) ResolveURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://blobs.test/files/" + id
}

func authedCtx(userId string) context.Context {
	return withUserId(context.Background(), userId)
}
