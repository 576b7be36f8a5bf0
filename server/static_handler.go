package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"MuseGen/logger"
)

// FilesHandler 提供本地媒体文件服务。
// 入库的 /files/{type}/{name} 路径由这里解析到FilesDir下的对应文件。
func (h *APIHandler) FilesHandler(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/files/")
	rel = filepath.Clean(rel)

	// 拒绝目录穿越
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		respondError(w, http.StatusBadRequest, "Invalid file path")
		return
	}

	full := filepath.Join(h.cfg.FilesDir, rel)
	logger.Debug("[Files] 请求媒体文件", logger.String("path", rel))
	http.ServeFile(w, r, full)
}
