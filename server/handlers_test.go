package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"MuseGen/config"
	"MuseGen/core/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*APIHandler, *config.Config) {
	t.Helper()
	cfg := &config.Config{FilesDir: t.TempDir()}
	return NewAPIHandler(nil, nil, nil, nil, nil, cfg), cfg
}

func TestAuthMiddleware(t *testing.T) {
	auth.SetJWTSecret("test-secret")
	h, _ := newTestHandler(t)

	var gotUserID int64
	protected := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"缺少认证头", "", http.StatusUnauthorized},
		{"格式错误", "Token abc", http.StatusUnauthorized},
		{"token无效", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/song/song_list", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	token, err := auth.GenerateToken(42, "张三")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/song/song_list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestFilesHandler(t *testing.T) {
	h, cfg := newTestHandler(t)

	audioDir := filepath.Join(cfg.FilesDir, "audio")
	require.NoError(t, os.MkdirAll(audioDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(audioDir, "abc123.mp3"), []byte("audio-bytes"), 0644))

	req := httptest.NewRequest(http.MethodGet, "/files/audio/abc123.mp3", nil)
	rec := httptest.NewRecorder()
	h.FilesHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio-bytes", rec.Body.String())
}

func TestFilesHandlerRejectsTraversal(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, path := range []string{
		"/files/../config/.env",
		"/files/..",
		"/files/",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.FilesHandler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "path=%s", path)
	}
}

func TestGenerateHandlerValidation(t *testing.T) {
	auth.SetJWTSecret("test-secret")
	h, _ := newTestHandler(t)

	withUser := func(req *http.Request) *http.Request {
		ctx := context.WithValue(req.Context(), ctxKeyUserID, int64(42))
		return req.WithContext(ctx)
	}

	// 描述为空
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/song/generate",
		strings.NewReader(`{"songTitle":"夏雨"}`)))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 非法JSON
	req = withUser(httptest.NewRequest(http.MethodPost, "/api/song/generate",
		strings.NewReader(`{`)))
	rec = httptest.NewRecorder()
	h.GenerateHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 未认证
	req = httptest.NewRequest(http.MethodPost, "/api/song/generate",
		strings.NewReader(`{"songDescription":"a song"}`))
	rec = httptest.NewRecorder()
	h.GenerateHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCustomGenerateHandlerValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	ctx := context.WithValue(context.Background(), ctxKeyUserID, int64(42))

	// 歌词和风格标签缺一不可
	for _, body := range []string{
		`{"songLyrics":"line1"}`,
		`{"songStyles":"lofi"}`,
		`{}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/song/custom_generate",
			strings.NewReader(body)).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.CustomGenerateHandler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
}
