package server

import (
	"net/http"

	"MuseGen/core/auth"
	"MuseGen/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 内部工具，跨域已由前置中间件放开
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotifyWSHandler 建立保存结果的推送连接。
// 浏览器的WebSocket握手无法带Authorization头，token从查询参数传入。
func (h *APIHandler) NotifyWSHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Token is required")
		return
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[Notify] WebSocket升级失败", logger.ErrorField(err))
		return
	}

	h.hub.Register(claims.UserID, conn)
}
