package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/raiyanplanet/Wibloo/models"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[codes.Code]int{
		codes.Unauthenticated:  http.StatusUnauthorized,
		codes.PermissionDenied: http.StatusForbidden,
		codes.NotFound:         http.StatusNotFound,
		codes.InvalidArgument:  http.StatusBadRequest,
		codes.AlreadyExists:    http.StatusConflict,
		codes.Internal:         http.StatusInternalServerError,
		codes.Unknown:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, codeToHTTPStatus(code))
	}
}

func TestAuthMiddleware(t *testing.T) {
	config := models.Config{JWTSecret: []byte("test-secret-32-bytes-long-enough")}
	token, err := GenerateToken("user-1", config.JWTSecret)
	require.NoError(t, err)

	var gotId string
	var gotOk bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotId, gotOk = userIdFromCtx(r.Context())
	})

	call := func(handler http.Handler, authorization string) *httptest.ResponseRecorder {
		gotId, gotOk = "", false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	required := authMiddleware(inner, config, true)
	optional := authMiddleware(inner, config, false)

	rec := call(required, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, gotOk)
	require.Equal(t, "user-1", gotId)

	rec = call(required, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(required, "Bearer garbage")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Optional routes degrade to anonymous instead of erroring.
	rec = call(optional, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, gotOk)

	rec = call(optional, "Bearer garbage")
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, gotOk)

	rec = call(optional, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", gotId)
}
