package socialRepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/raiyanplanet/Wibloo/metrics"
	"github.com/raiyanplanet/Wibloo/models"
)

const userColumns = `id, name, username, email, phone, bio, date_of_birth, website, location,
	avatar_id, is_verified, followers_count, following_count, posts_count, password_hash, created_at`

const postColumns = `id, author_id, image_id, caption, is_public, likes_count, comments_count, created_at`

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// inTx runs fn inside a transaction and rolls back on any error. Every
// mutation below is one such unit: precondition checks, the primary
// write and the counter adjustments commit together or not at all.
func (r *PostgresRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			zap.S().Errorf("rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// adjustCount is the single place counters change. GREATEST keeps every
// counter non-negative no matter how often a decrement is replayed.
func adjustCount(ctx context.Context, tx *sql.Tx, table, column, id string, delta int64) error {
	q := fmt.Sprintf(`UPDATE %s SET %s = GREATEST(%s + $1, 0) WHERE id = $2`, table, column, column)
	_, err := tx.ExecContext(ctx, q, delta, id)
	if err == nil {
		direction := "inc"
		if delta < 0 {
			direction = "dec"
		}
		metrics.CounterAdjustTotal.WithLabelValues(table+"."+column, direction).Inc()
	}
	return err
}

// insertOutbox records a domain event in the same transaction as the
// write that produced it. A relay can drain the table later; nothing in
// the request path depends on it.
func insertOutbox(ctx context.Context, tx *sql.Tx, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (topic, event_key, payload) VALUES ($1, $2, $3)`,
		topic, key, payload)
	return err
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// ---- users ----

func (r *PostgresRepo) CreateUser(ctx context.Context, user models.User) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, password_hash) VALUES ($1, $2, $3, $4, $5)`,
		id, user.Name, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

func (r *PostgresRepo) scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.Id, &u.Name, &u.Username, &u.Email, &u.Phone, &u.Bio,
		&u.DateOfBirth, &u.Website, &u.Location, &u.AvatarId, &u.IsVerified,
		&u.FollowersCount, &u.FollowingCount, &u.PostsCount, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepo) GetUser(ctx context.Context, id string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanUser(row)
}

func (r *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return r.scanUser(row)
}

func (r *PostgresRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return r.scanUser(row)
}

// profileColumn maps patch fields to their columns. Only fields present
// in the patch end up in the UPDATE, so an omitted field is never
// touched and an explicit empty string clears the column.
func buildProfileUpdate(id string, patch models.ProfilePatch) (string, []any) {
	set := make([]string, 0, 7)
	args := []any{id}
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", patch.Name)
	add("username", patch.Username)
	add("bio", patch.Bio)
	add("date_of_birth", patch.DateOfBirth)
	add("website", patch.Website)
	add("location", patch.Location)
	add("avatar_id", patch.AvatarId)
	if len(set) == 0 {
		return "", nil
	}
	q := "UPDATE users SET "
	for i, s := range set {
		if i > 0 {
			q += ", "
		}
		q += s
	}
	q += " WHERE id = $1"
	return q, args
}

func (r *PostgresRepo) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	q, args := buildProfileUpdate(id, patch)
	if q == "" {
		return nil
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) queryUsers(ctx context.Context, q string, args ...any) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresRepo) SearchByUsername(ctx context.Context, query string, limit int) ([]models.User, error) {
	return r.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE username ILIKE $1 || '%' ORDER BY username LIMIT $2`,
		query, limit)
}

// SearchByName emulates a case-sensitive prefix match with the
// [query, query+maxchar) range the by-name index supports.
func (r *PostgresRepo) SearchByName(ctx context.Context, query string, limit int) ([]models.User, error) {
	return r.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE name >= $1 AND name < $2 ORDER BY name LIMIT $3`,
		query, query+"￿", limit)
}

func (r *PostgresRepo) SearchByEmail(ctx context.Context, email string, limit int) ([]models.User, error) {
	return r.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT $2`,
		email, limit)
}

func (r *PostgresRepo) ListUsers(ctx context.Context, excludeId string, limit int) ([]models.User, error) {
	return r.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY created_at LIMIT $2`,
		excludeId, limit)
}

func (r *PostgresRepo) ListAllUsers(ctx context.Context) ([]models.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
}

// ---- posts ----

func (r *PostgresRepo) CreatePost(ctx context.Context, post models.Post) (string, error) {
	id := uuid.NewString()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO posts (id, author_id, image_id, caption, is_public) VALUES ($1, $2, $3, $4, $5)`,
			id, post.AuthorId, post.ImageId, post.Caption, post.IsPublic)
		if err != nil {
			return err
		}
		if err := adjustCount(ctx, tx, "users", "posts_count", post.AuthorId, 1); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, "posts.created", post.AuthorId, map[string]any{
			"id": id, "authorId": post.AuthorId, "createdAt": time.Now().UnixMilli(),
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepo) scanPost(row interface{ Scan(...any) error }) (models.Post, error) {
	var p models.Post
	err := row.Scan(&p.Id, &p.AuthorId, &p.ImageId, &p.Caption, &p.IsPublic,
		&p.LikesCount, &p.CommentsCount, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Post{}, ErrNotFound
	}
	return p, err
}

func (r *PostgresRepo) GetPost(ctx context.Context, id string) (models.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return r.scanPost(row)
}

func (r *PostgresRepo) DeletePost(ctx context.Context, postId, actorId string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var authorId string
		err := tx.QueryRowContext(ctx,
			`SELECT author_id FROM posts WHERE id = $1 FOR UPDATE`, postId).Scan(&authorId)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if authorId != actorId {
			return ErrNotOwner
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = $1`, postId); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, postId); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postId); err != nil {
			return err
		}
		if err := adjustCount(ctx, tx, "users", "posts_count", authorId, -1); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, "posts.deleted", authorId, map[string]any{"id": postId})
	})
}

func (r *PostgresRepo) queryPosts(ctx context.Context, q string, args ...any) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostgresRepo) FeedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE is_public ORDER BY created_at DESC LIMIT $1`,
		limit)
}

func (r *PostgresRepo) SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE is_public AND to_tsvector('simple', coalesce(caption, '')) @@ plainto_tsquery('simple', $1)
		 ORDER BY created_at DESC LIMIT $2`,
		query, limit)
}

func (r *PostgresRepo) PostsByAuthor(ctx context.Context, authorId string) ([]models.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE author_id = $1 ORDER BY created_at DESC`,
		authorId)
}

// ---- likes ----

func (r *PostgresRepo) ToggleLike(ctx context.Context, postId, userId string) (bool, error) {
	var liked bool
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		// Locking the post row serializes concurrent toggles against the
		// same post, so the counter always matches the row count.
		var exists string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postId).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postId, userId)
		if err != nil {
			return err
		}
		deleted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if deleted > 0 {
			liked = false
			if err := adjustCount(ctx, tx, "posts", "likes_count", postId, -1); err != nil {
				return err
			}
			return insertOutbox(ctx, tx, "likes.deleted", userId, map[string]any{
				"postId": postId, "userId": userId,
			})
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (id, post_id, user_id) VALUES ($1, $2, $3)`,
			uuid.NewString(), postId, userId)
		if err != nil {
			return err
		}
		liked = true
		if err := adjustCount(ctx, tx, "posts", "likes_count", postId, 1); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, "likes.created", userId, map[string]any{
			"postId": postId, "userId": userId,
		})
	})
	return liked, err
}

func (r *PostgresRepo) LikesByPost(ctx context.Context, postId string) ([]models.Like, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, created_at FROM likes WHERE post_id = $1 ORDER BY created_at`,
		postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		var l models.Like
		if err := rows.Scan(&l.Id, &l.PostId, &l.UserId, &l.CreatedAt); err != nil {
			return nil, err
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

func (r *PostgresRepo) HasLike(ctx context.Context, postId, userId string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`,
		postId, userId).Scan(&exists)
	return exists, err
}

// ---- follows ----

func (r *PostgresRepo) ToggleFollow(ctx context.Context, followerId, followingId string) (bool, error) {
	var following bool
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		// Both user rows are locked in id order so two opposite-direction
		// toggles cannot deadlock.
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
			pq.Array([]string{followerId, followingId}))
		if err != nil {
			return err
		}
		found := 0
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			found++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if found != 2 {
			return ErrNotFound
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
			followerId, followingId)
		if err != nil {
			return err
		}
		deleted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if deleted > 0 {
			following = false
			if err := adjustCount(ctx, tx, "users", "following_count", followerId, -1); err != nil {
				return err
			}
			if err := adjustCount(ctx, tx, "users", "followers_count", followingId, -1); err != nil {
				return err
			}
			return insertOutbox(ctx, tx, "follows.deleted", followerId, map[string]any{
				"followerId": followerId, "followingId": followingId,
			})
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO follows (id, follower_id, following_id) VALUES ($1, $2, $3)`,
			uuid.NewString(), followerId, followingId)
		if err != nil {
			return err
		}
		following = true
		if err := adjustCount(ctx, tx, "users", "following_count", followerId, 1); err != nil {
			return err
		}
		if err := adjustCount(ctx, tx, "users", "followers_count", followingId, 1); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, "follows.created", followerId, map[string]any{
			"followerId": followerId, "followingId": followingId,
		})
	})
	return following, err
}

func (r *PostgresRepo) queryFollows(ctx context.Context, q string, args ...any) ([]models.Follow, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var follows []models.Follow
	for rows.Next() {
		var f models.Follow
		if err := rows.Scan(&f.Id, &f.FollowerId, &f.FollowingId, &f.CreatedAt); err != nil {
			return nil, err
		}
		follows = append(follows, f)
	}
	return follows, rows.Err()
}

func (r *PostgresRepo) Followers(ctx context.Context, userId string) ([]models.Follow, error) {
	return r.queryFollows(ctx,
		`SELECT id, follower_id, following_id, created_at FROM follows WHERE following_id = $1 ORDER BY created_at`,
		userId)
}

func (r *PostgresRepo) Following(ctx context.Context, userId string) ([]models.Follow, error) {
	return r.queryFollows(ctx,
		`SELECT id, follower_id, following_id, created_at FROM follows WHERE follower_id = $1 ORDER BY created_at`,
		userId)
}

func (r *PostgresRepo) HasFollow(ctx context.Context, followerId, followingId string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		followerId, followingId).Scan(&exists)
	return exists, err
}

// ---- comments ----

func (r *PostgresRepo) CreateComment(ctx context.Context, comment models.Comment) (string, error) {
	id := uuid.NewString()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comments (id, post_id, author_id, content) VALUES ($1, $2, $3, $4)`,
			id, comment.PostId, comment.AuthorId, comment.Content)
		if err != nil {
			return err
		}
		// A missing parent leaves the counter untouched; the comment row
		// still lands.
		if err := adjustCount(ctx, tx, "posts", "comments_count", comment.PostId, 1); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, "comments.created", comment.AuthorId, map[string]any{
			"id": id, "postId": comment.PostId, "authorId": comment.AuthorId,
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepo) GetComment(ctx context.Context, id string) (models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, author_id, content, likes_count, created_at FROM comments WHERE id = $1`,
		id).Scan(&c.Id, &c.PostId, &c.AuthorId, &c.Content, &c.LikesCount, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Comment{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) DeleteComment(ctx context.Context, commentId, actorId string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var postId, authorId string
		err := tx.QueryRowContext(ctx,
			`SELECT post_id, author_id FROM comments WHERE id = $1 FOR UPDATE`,
			commentId).Scan(&postId, &authorId)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if authorId != actorId {
			return ErrNotOwner
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentId); err != nil {
			return err
		}
		if err := adjustCount(ctx, tx, "posts", "comments_count", postId, -1); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, "comments.deleted", authorId, map[string]any{"id": commentId})
	})
}

func (r *PostgresRepo) CommentsByPost(ctx context.Context, postId string) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, author_id, content, likes_count, created_at
		 FROM comments WHERE post_id = $1 ORDER BY created_at DESC`,
		postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.Id, &c.PostId, &c.AuthorId, &c.Content, &c.LikesCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ---- messages ----

func (r *PostgresRepo) CreateMessage(ctx context.Context, message models.Message) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content) VALUES ($1, $2, $3, $4)`,
		id, message.SenderId, message.ReceiverId, message.Content)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepo) GetMessage(ctx context.Context, id string) (models.Message, error) {
	var m models.Message
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, content, is_read, created_at FROM messages WHERE id = $1`,
		id).Scan(&m.Id, &m.SenderId, &m.ReceiverId, &m.Content, &m.IsRead, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Message{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresRepo) MarkRead(ctx context.Context, messageId, actorId string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var receiverId string
		err := tx.QueryRowContext(ctx,
			`SELECT receiver_id FROM messages WHERE id = $1 FOR UPDATE`, messageId).Scan(&receiverId)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if receiverId != actorId {
			return ErrNotOwner
		}
		_, err = tx.ExecContext(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1`, messageId)
		return err
	})
}

func (r *PostgresRepo) queryMessages(ctx context.Context, q string, args ...any) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Id, &m.SenderId, &m.ReceiverId, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PostgresRepo) MessagesBetween(ctx context.Context, a, b string) ([]models.Message, error) {
	return r.queryMessages(ctx,
		`SELECT id, sender_id, receiver_id, content, is_read, created_at FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC`,
		a, b)
}

func (r *PostgresRepo) MessagesInvolving(ctx context.Context, userId string) ([]models.Message, error) {
	return r.queryMessages(ctx,
		`SELECT id, sender_id, receiver_id, content, is_read, created_at FROM messages
		 WHERE sender_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC`,
		userId)
}
