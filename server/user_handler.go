package server

import (
	"encoding/json"
	"net/http"

	"MuseGen/core/auth"
	"MuseGen/logger"
	"MuseGen/repository"
)

// LoginOARequest SSO登录请求
type LoginOARequest struct {
	Token string `json:"token"`
}

// LoginOAHandler 处理统一认证SSO登录：本地校验token签名，向SSO服务
// 换取员工信息，落库用户与组织归属，签发本地会话token。
func (h *APIHandler) LoginOAHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginOARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "Token is required")
		return
	}

	if err := h.ssoVerifier.VerifyToken(req.Token); err != nil {
		logger.Warn("[LoginOA] SSO token校验失败", logger.ErrorField(err))
		respondError(w, http.StatusUnauthorized, "Invalid SSO token")
		return
	}

	info, err := h.ssoVerifier.FetchUserInfo(req.Token)
	if err != nil {
		logger.Error("[LoginOA] 获取SSO用户信息失败", logger.ErrorField(err))
		respondError(w, http.StatusUnauthorized, "Failed to fetch user info from SSO")
		return
	}

	studioName, teamName := auth.SplitStudioTeam(info.Dept)
	user, err := h.userRepo.UpsertFromSSO(repository.SSOProfile{
		Name:       info.Alias,
		JobNumber:  info.Username,
		JobName:    info.Extra.JobName,
		AvatarURL:  info.Extra.Avatar,
		Token:      req.Token,
		StudioName: studioName,
		TeamName:   teamName,
	})
	if err != nil {
		logger.Error("[LoginOA] 用户落库失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get or create user")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Name)
	if err != nil {
		logger.Error("[LoginOA] 生成Token失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	profile, err := h.userRepo.ProfileOf(user)
	if err != nil {
		logger.Error("[LoginOA] 构建用户信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[LoginOA] 登录成功",
		logger.String("name", user.Name),
		logger.String("jobNumber", user.JobNumber))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  profile,
	})
}
