package models

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets config.yaml carry values like "15m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// HS256 secret for session tokens and signed blob URLs,
	// base64 encoded in the environment.
	JWTSecret []byte

	RedisPassword string
}

// AppConfig is the yaml side of the configuration: everything that is
// not a secret lives in config.yaml.
type AppConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Redis        RedisConfig        `yaml:"redis"`
	Blob         BlobConfig         `yaml:"blob"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	// External base URL used when building upload/download links.
	PublicURL string `yaml:"public_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	PoolSize int    `yaml:"pool_size"`
}

type BlobConfig struct {
	Dir          string   `yaml:"dir"`
	UploadTTL    Duration `yaml:"upload_ttl"`
	DownloadTTL  Duration `yaml:"download_ttl"`
	MaxSizeBytes int64    `yaml:"max_size_bytes"`
}

type RateLimitingConfig struct {
	Enabled bool            `yaml:"enabled"`
	Rules   map[string]Rule `yaml:"rules"`
}

type Rule struct {
	Limit      int `yaml:"limit"`       // bucket size
	RefillRate int `yaml:"refill_rate"` // requests/s
}

// User is the stored profile document. Counters are denormalized and
// kept non-negative by the repo; a zero value means "no edges", there is
// no unset state.
type User struct {
	Id             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	Username       string    `json:"username,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	DateOfBirth    string    `json:"dateOfBirth,omitempty"`
	Website        string    `json:"website,omitempty"`
	Location       string    `json:"location,omitempty"`
	AvatarId       string    `json:"avatarId,omitempty"`
	IsVerified     bool      `json:"isVerified"`
	FollowersCount int64     `json:"followersCount"`
	FollowingCount int64     `json:"followingCount"`
	PostsCount     int64     `json:"postsCount"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Post struct {
	Id            string    `json:"id"`
	AuthorId      string    `json:"authorId"`
	ImageId       string    `json:"imageId"`
	Caption       string    `json:"caption,omitempty"`
	IsPublic      bool      `json:"isPublic"`
	LikesCount    int64     `json:"likesCount"`
	CommentsCount int64     `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Like struct {
	Id        string    `json:"id"`
	PostId    string    `json:"postId"`
	UserId    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	Id       string `json:"id"`
	PostId   string `json:"postId"`
	AuthorId string `json:"authorId"`
	Content  string `json:"content"`
	// Declared in the schema; nothing mutates it yet.
	LikesCount int64     `json:"likesCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Follow struct {
	Id          string    `json:"id"`
	FollowerId  string    `json:"followerId"`
	FollowingId string    `json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Message struct {
	Id         string    `json:"id"`
	SenderId   string    `json:"senderId"`
	ReceiverId string    `json:"receiverId"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProfilePatch carries the partial update for updateProfile. A nil field
// was omitted by the caller and must not be touched; a non-nil pointer to
// an empty string is an explicit clear.
type ProfilePatch struct {
	Name        *string
	Username    *string
	Bio         *string
	DateOfBirth *string
	Website     *string
	Location    *string
	AvatarId    *string
}

func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Username == nil && p.Bio == nil &&
		p.DateOfBirth == nil && p.Website == nil && p.Location == nil &&
		p.AvatarId == nil
}

// View types returned by the query layer. They carry resolved blob URLs
// so the presentation layer never sees raw blob ids.

type UserView struct {
	User
	AvatarUrl string `json:"avatarUrl,omitempty"`
}

type PostView struct {
	Post
	Author   *UserView `json:"author,omitempty"`
	ImageUrl string    `json:"imageUrl,omitempty"`
	IsLiked  bool      `json:"isLiked"`
}

type CommentView struct {
	Comment
	Author *UserView `json:"author,omitempty"`
}

type LikeView struct {
	Like
	User *UserView `json:"user,omitempty"`
}

type MessageView struct {
	Message
	IsFromCurrentUser bool `json:"isFromCurrentUser"`
}

type Conversation struct {
	OtherUser       *UserView `json:"otherUser"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
}
