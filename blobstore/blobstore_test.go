package blobstore

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(nil, t.TempDir(), "http://localhost:8080",
		[]byte("test-secret-32-bytes-long-enough"), time.Minute, time.Minute, 1<<20)
	require.NoError(t, err)
	return s
}

func TestSignVerify(t *testing.T) {
	s := testStore(t)

	token, err := s.sign(scopeUpload, "blob-1", time.Minute)
	require.NoError(t, err)

	id, err := s.verify(token, scopeUpload)
	require.NoError(t, err)
	require.Equal(t, "blob-1", id)

	// A token signed for one scope is useless in the other.
	_, err = s.verify(token, scopeRead)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.verify("garbage", scopeUpload)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyExpired(t *testing.T) {
	s := testStore(t)

	token, err := s.sign(scopeRead, "blob-1", -time.Minute)
	require.NoError(t, err)

	_, err = s.verify(token, scopeRead)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestHandleUploadTooLarge(t *testing.T) {
	s, err := New(nil, t.TempDir(), "http://localhost:8080",
		[]byte("test-secret-32-bytes-long-enough"), time.Minute, time.Minute, 8)
	require.NoError(t, err)

	token, err := s.sign(scopeUpload, "blob-1", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/upload?token="+token,
		bytes.NewReader(make([]byte, 9)))
	rec := httptest.NewRecorder()
	s.HandleUpload(rec, req)

	// Rejected before the commit, and the partial file is gone.
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	_, statErr := os.Stat(s.path("blob-1"))
	require.True(t, os.IsNotExist(statErr))
}

func TestHandleUploadBadToken(t *testing.T) {
	s := testStore(t)

	req := httptest.NewRequest(http.MethodPut, "/upload?token=garbage",
		bytes.NewReader([]byte("data")))
	rec := httptest.NewRecorder()
	s.HandleUpload(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResolveURL(t *testing.T) {
	s := testStore(t)

	require.Empty(t, s.ResolveURL(""))

	url := s.ResolveURL("blob-1")
	require.Contains(t, url, "http://localhost:8080/files/blob-1?token=")
}
