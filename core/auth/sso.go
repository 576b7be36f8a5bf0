package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MuseGen/logger"

	"github.com/golang-jwt/jwt/v5"
)

// SSOUserInfo 统一认证服务返回的员工信息
type SSOUserInfo struct {
	Alias    string `json:"alias"`    // 姓名
	Username string `json:"username"` // 工号
	Dept     string `json:"dept"`     // 部门，形如 "项目组 > 工作室"
	Extra    struct {
		JobName string `json:"job_name"`
		Avatar  string `json:"avatar"`
	} `json:"extra"`
}

// SSOVerifier 校验SSO token并向统一认证服务换取员工信息
type SSOVerifier struct {
	secret      string
	userInfoURL string
	pid         int
	httpClient  *http.Client
}

// NewSSOVerifier 创建SSO校验器
func NewSSOVerifier(secret, userInfoURL string, pid int) *SSOVerifier {
	return &SSOVerifier{
		secret:      secret,
		userInfoURL: userInfoURL,
		pid:         pid,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// VerifyToken 本地校验SSO token的HMAC-SHA256签名。
// 签名合法只说明token确实由SSO签发，员工信息仍以服务端返回为准。
func (v *SSOVerifier) VerifyToken(tokenString string) error {
	_, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.secret), nil
	})
	if err != nil {
		return fmt.Errorf("SSO token verification failed: %w", err)
	}
	return nil
}

// FetchUserInfo 向统一认证服务查询token对应的员工信息
func (v *SSOVerifier) FetchUserInfo(tokenString string) (*SSOUserInfo, error) {
	form := url.Values{}
	form.Set("token", tokenString)
	form.Set("pid", strconv.Itoa(v.pid))

	resp, err := v.httpClient.PostForm(v.userInfoURL, form)
	if err != nil {
		return nil, fmt.Errorf("SSO user info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SSO user info request returned status %d", resp.StatusCode)
	}

	var result struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    SSOUserInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode SSO user info response: %w", err)
	}

	if result.Code != 0 || result.Message != "success" {
		return nil, fmt.Errorf("SSO user info rejected: %s (code %d)", result.Message, result.Code)
	}

	logger.Info("[SSO] 用户信息获取成功",
		logger.String("alias", result.Data.Alias),
		logger.String("username", result.Data.Username),
		logger.String("dept", result.Data.Dept))
	return &result.Data, nil
}

// SplitStudioTeam 拆分部门字符串为项目组和工作室，
// 没有">"分隔时整个字符串视为项目组。
func SplitStudioTeam(dept string) (studio, team string) {
	if strings.Contains(dept, ">") {
		parts := strings.SplitN(dept, ">", 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(dept), ""
}
