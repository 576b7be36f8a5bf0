package server

import (
	"encoding/json"
	"net/http"

	"MuseGen/core/auth"
	"MuseGen/logger"
	"MuseGen/model"
)

// LoginRequest represents the local login request body.
type LoginRequest struct {
	JobNumber string `json:"jobNumber"`
	Password  string `json:"password"`
}

// RegisterRequest represents the local registration request body.
// 本地账号仅用于没有OA的开发调试场景。
type RegisterRequest struct {
	Name      string `json:"name"`
	JobNumber string `json:"jobNumber"`
	Password  string `json:"password"`
}

// LoginHandler handles local account login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.JobNumber == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Job number and password are required")
		return
	}

	user, err := h.userRepo.GetUserByJobNumber(req.JobNumber)
	if err != nil {
		logger.Error("[Login] 查询用户失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || user.PasswordHash == "" || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("[Login] 登录验证失败", logger.String("jobNumber", req.JobNumber))
		respondError(w, http.StatusUnauthorized, "Invalid job number or password")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Name)
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	profile, err := h.userRepo.ProfileOf(user)
	if err != nil {
		logger.Error("[Login] 构建用户信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Login] 登录成功", logger.String("jobNumber", user.JobNumber))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  profile,
	})
}

// RegisterHandler handles local account registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.JobNumber == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, job number and password are required")
		return
	}

	existing, err := h.userRepo.GetUserByJobNumber(req.JobNumber)
	if err != nil {
		logger.Error("[Register] 查询用户失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "Job number already registered")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &model.User{
		Name:         req.Name,
		JobNumber:    req.JobNumber,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	if err := h.userRepo.CreateUser(user); err != nil {
		logger.Error("[Register] 创建用户失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	logger.Info("[Register] 注册成功", logger.String("jobNumber", user.JobNumber))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        user.ID,
		"name":      user.Name,
		"jobNumber": user.JobNumber,
	})
}
