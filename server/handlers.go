package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"MuseGen/config"
	"MuseGen/core/auth"
	"MuseGen/core/notify"
	"MuseGen/core/song"
	"MuseGen/repository"
)

type contextKey string

const (
	ctxKeyUserID contextKey = "userID"
	ctxKeyName   contextKey = "name"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	userRepo    repository.UserRepository
	songRepo    repository.SongRepository
	songService *song.Service
	ssoVerifier *auth.SSOVerifier
	hub         *notify.Hub
	cfg         *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	userRepo repository.UserRepository,
	songRepo repository.SongRepository,
	songService *song.Service,
	ssoVerifier *auth.SSOVerifier,
	hub *notify.Hub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:    userRepo,
		songRepo:    songRepo,
		songService: songService,
		ssoVerifier: ssoVerifier,
		hub:         hub,
		cfg:         cfg,
	}
}

// respondJSON 输出JSON响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError 输出统一格式的错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"code":    status,
		"message": message,
	})
}

// AuthMiddleware 校验本地会话token并把用户信息写入请求上下文
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyName, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxKeyUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
