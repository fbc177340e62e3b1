// Package blobstore keeps binary content (post images, avatars) outside
// the entity store. Callers get a one-time signed upload URL, push bytes
// straight to it, and hand the returned blob id to the mutation layer.
// Blob ids resolve to time-limited signed download URLs.
package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("blob does not exist")
	ErrTokenInvalid = errors.New("blob token is invalid or expired")
	ErrUploadUsed   = errors.New("upload slot already consumed")
)

const (
	scopeUpload = "blob:upload"
	scopeRead   = "blob:read"
)

type Store struct {
	db          *sql.DB
	dir         string
	secret      []byte
	baseURL     string
	uploadTTL   time.Duration
	downloadTTL time.Duration
	maxSize     int64
}

func New(db *sql.DB, dir, baseURL string, secret []byte, uploadTTL, downloadTTL time.Duration, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		db:          db,
		dir:         dir,
		secret:      secret,
		baseURL:     baseURL,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
		maxSize:     maxSize,
	}, nil
}

func (s *Store) sign(scope, blobId string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   blobId,
		Audience:  jwt.ClaimStrings{scope},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	return token.SignedString(s.secret)
}

func (s *Store) verify(tokenString, scope string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(scope),
	)
	claims := jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

// GenerateUploadURL reserves a pending blob row and returns a signed
// write-once location for it.
func (s *Store) GenerateUploadURL(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO blobs (id, state) VALUES ($1, 'pending')`, id); err != nil {
		return "", err
	}
	token, err := s.sign(scopeUpload, id, s.uploadTTL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/upload?token=%s", s.baseURL, token), nil
}

// Exists reports whether the blob has been uploaded and committed.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blobs WHERE id = $1 AND state = 'committed')`, id).Scan(&exists)
	return exists, err
}

// ResolveURL turns a blob reference into a retrievable URL. An empty
// reference resolves to an empty URL so callers can pass optional
// avatars straight through.
func (s *Store) ResolveURL(id string) string {
	if id == "" {
		return ""
	}
	token, err := s.sign(scopeRead, id, s.downloadTTL)
	if err != nil {
		zap.S().Errorf("failed to sign download url for blob %v: %v", id, err)
		return ""
	}
	return fmt.Sprintf("%s/files/%s?token=%s", s.baseURL, id, token)
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id)
}

// HandleUpload is the PUT endpoint behind GenerateUploadURL. The slot is
// consumed by flipping the row out of 'pending', so a token can only be
// used once even when replayed.
func (s *Store) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, err := s.verify(r.URL.Query().Get("token"), scopeUpload)
	if err != nil {
		http.Error(w, "Invalid or expired upload token", http.StatusForbidden)
		return
	}

	f, err := os.Create(s.path(id))
	if err != nil {
		zap.S().Errorf("failed to create blob file %v: %v", id, err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	// Read one byte past the limit so an oversized body is detectable
	// instead of silently truncated.
	size, err := io.Copy(f, io.LimitReader(r.Body, s.maxSize+1))
	closeErr := f.Close()
	if err != nil || closeErr != nil {
		os.Remove(s.path(id))
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	if size > s.maxSize {
		os.Remove(s.path(id))
		http.Error(w, "Upload exceeds size limit", http.StatusRequestEntityTooLarge)
		return
	}

	res, err := s.db.ExecContext(r.Context(),
		`UPDATE blobs SET state = 'committed', content_type = $2, size = $3 WHERE id = $1 AND state = 'pending'`,
		id, r.Header.Get("Content-Type"), size)
	if err != nil {
		os.Remove(s.path(id))
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		os.Remove(s.path(id))
		http.Error(w, "Upload slot already consumed", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"storageId":%q}`, id)
}

// HandleDownload serves GET /files/{id}.
func (s *Store) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tokenId, err := s.verify(r.URL.Query().Get("token"), scopeRead)
	if err != nil || tokenId != id {
		http.Error(w, "Invalid or expired download token", http.StatusForbidden)
		return
	}

	var contentType string
	err = s.db.QueryRowContext(r.Context(),
		`SELECT content_type FROM blobs WHERE id = $1 AND state = 'committed'`, id).Scan(&contentType)
	if err == sql.ErrNoRows {
		http.Error(w, "Blob not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	http.ServeFile(w, r, s.path(id))
}
