package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"MuseGen/core/song"
	"MuseGen/core/suno"
	"MuseGen/db"
	"MuseGen/logger"
)

// GenerateRequest 简单生成请求：描述+标题
type GenerateRequest struct {
	SongTitle         string `json:"songTitle"`
	SongDescription   string `json:"songDescription"`
	InstrumentalState bool   `json:"instrumentalState"`
}

// CustomGenerateRequest 自定义生成请求：歌词+风格标签+标题
type CustomGenerateRequest struct {
	SongTitle         string `json:"songTitle"`
	SongLyrics        string `json:"songLyrics"`
	SongStyles        string `json:"songStyles"`
	InstrumentalState bool   `json:"instrumentalState"`
}

// GenerateHandler 提交简单生成并等待完成。等待超时且没有任何结果时
// 返回408，由客户端提示重试；部分结果正常返回。
func (h *APIHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SongDescription == "" {
		respondError(w, http.StatusBadRequest, "Song description is required")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil || user == nil {
		respondError(w, http.StatusUnauthorized, "User not found")
		return
	}

	result, err := h.songService.Generate(r.Context(), song.GenerateParams{
		Description:  req.SongDescription,
		Title:        req.SongTitle,
		Instrumental: req.InstrumentalState,
	}, user)
	h.respondGeneration(w, result, err)
}

// CustomGenerateHandler 提交自定义生成并等待完成
func (h *APIHandler) CustomGenerateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CustomGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// 自定义生成必须同时给出歌词和风格标签
	if req.SongLyrics == "" || req.SongStyles == "" {
		respondError(w, http.StatusBadRequest, "Song lyrics and styles are required")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil || user == nil {
		respondError(w, http.StatusUnauthorized, "User not found")
		return
	}

	result, err := h.songService.CustomGenerate(r.Context(), song.CustomGenerateParams{
		Lyrics:       req.SongLyrics,
		Styles:       req.SongStyles,
		Title:        req.SongTitle,
		Instrumental: req.InstrumentalState,
	}, user)
	h.respondGeneration(w, result, err)
}

// respondGeneration 统一映射生成结果与错误
func (h *APIHandler) respondGeneration(w http.ResponseWriter, result *song.GenerateResult, err error) {
	if err != nil {
		var authErr *suno.AuthError
		var genErr *suno.GenerationError
		switch {
		case errors.As(err, &authErr):
			logger.Error("[Generate] 外部API认证失败", logger.ErrorField(err))
			respondError(w, http.StatusBadGateway, "Upstream authentication failed")
		case errors.As(err, &genErr):
			logger.Error("[Generate] 生成任务被拒绝", logger.ErrorField(err))
			respondError(w, http.StatusBadGateway, "Generation rejected by provider")
		default:
			logger.Error("[Generate] 生成失败", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if len(result.Audios) == 0 {
		// 等待预算用尽且一无所获，按可重试的超时呈现
		respondError(w, http.StatusRequestTimeout, "Song generation timed out")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// SongListHandler 分页查询当前用户的歌曲
func (h *APIHandler) SongListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	pageNum, _ := strconv.Atoi(r.URL.Query().Get("pageNum"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	songs, total, err := h.songRepo.ListByUser(userID, pageNum, pageSize)
	if err != nil {
		logger.Error("[SongList] 查询失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"songsList": songs,
		"total":     total,
	})
}

// SongInfoHandler 查询单首歌曲详情
func (h *APIHandler) SongInfoHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	songID, err := strconv.ParseInt(r.URL.Query().Get("songId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song id")
		return
	}

	record, err := h.songRepo.GetByID(songID, userID)
	if err != nil {
		logger.Error("[SongInfo] 查询失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "Song not found")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// DeleteSongRequest 删除歌曲请求
type DeleteSongRequest struct {
	SongID int64 `json:"songId"`
}

// DeleteSongHandler 软删除歌曲
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req DeleteSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.songRepo.SoftDelete(req.SongID, userID); err != nil {
		logger.Error("[DeleteSong] 删除失败", logger.Int64("songId", req.SongID), logger.ErrorField(err))
		respondError(w, http.StatusNotFound, "Song not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":    200,
		"message": "Song deleted successfully",
	})
}

// GetCreditsHandler 查询当日剩余生成次数
func (h *APIHandler) GetCreditsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	remaining, err := h.songService.RemainingCredits(r.Context(), userID)
	if err != nil {
		logger.Error("[GetCredits] 查询失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"remaining": remaining,
	})
}

// SaveStatusHandler 查询后台保存任务的状态
func (h *APIHandler) SaveStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "Job id is required")
		return
	}

	status, err := db.GetSaveJob(r.Context(), jobID)
	if err != nil {
		logger.Error("[SaveStatus] 查询失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if status == nil || status.UserID != userID {
		respondError(w, http.StatusNotFound, "Save job not found")
		return
	}

	respondJSON(w, http.StatusOK, status)
}
