package suno

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"MuseGen/core/utils"
	"MuseGen/logger"
)

const (
	defaultBaseURL  = "https://studio-api.suno.ai"
	defaultClerkURL = "https://clerk.suno.com"
	defaultModel    = "chirp-v3-0"

	clerkJSVersion = "4.70.5"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.82 Safari/537.36"

	// 等待生成完成的墙钟预算
	pollBudget = 100 * time.Second
)

// Config Suno客户端配置
type Config struct {
	Cookie   string
	BaseURL  string
	ClerkURL string
	Model    string
}

// Client 维护到Suno的一条认证通道：长期的cookie身份、一次登录周期内的
// 会话ID、以及短期的bearer token。进程内同一凭证只构造一个实例，
// 显式注入给所有调用方共享。
//
// token续期由互斥锁串行化，并发调用不会各自发起续期后互相覆盖。
type Client struct {
	baseURL  string
	clerkURL string
	cookie   string
	model    string

	httpClient *http.Client

	// renewMu串行化整个续期流程（读会话ID、请求、写回token），
	// 并发调用不会同时向服务商发起续期，失败续期的清空也不会
	// 覆盖刚续期成功的token。mu只保护字段读写。
	renewMu sync.Mutex

	mu    sync.Mutex
	sid   string // 会话ID，Initialize后可用
	token string // bearer token，每次KeepAlive刷新

	// 测试注入点：轮询循环的停机条件依赖时钟和睡眠
	now   func() time.Time
	sleep func(ctx context.Context, minSec, maxSec int) error
}

// NewClient 创建未认证的客户端，使用前必须先Initialize
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ClerkURL == "" {
		cfg.ClerkURL = defaultClerkURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		clerkURL: cfg.ClerkURL,
		cookie:   cfg.Cookie,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newRetryTransport(nil),
		},
		now:   time.Now,
		sleep: utils.Sleep,
	}
}

// Initialize 通过身份端点换取会话ID。响应中没有会话ID说明配置的
// cookie已失效，返回AuthError，不自动重试。
func (c *Client) Initialize(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/client?_clerk_js_version=%s", c.clerkURL, clerkJSVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &AuthError{Reason: "failed to build session request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", c.cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Reason: "session request failed", Err: err}
	}
	defer resp.Body.Close()

	var sessionResp struct {
		Response struct {
			LastActiveSessionID string `json:"last_active_session_id"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return &AuthError{Reason: "failed to decode session response", Err: err}
	}

	if sessionResp.Response.LastActiveSessionID == "" {
		// cookie过期时服务商返回空会话，需要更新SUNO_COOKIE
		return &AuthError{Reason: "no session id in response, the configured cookie may be stale"}
	}

	c.mu.Lock()
	c.sid = sessionResp.Response.LastActiveSessionID
	c.mu.Unlock()

	logger.Info("[Suno] 会话初始化成功")
	return nil
}

// KeepAlive 用会话ID换取新的bearer token。必须先Initialize，否则返回
// AuthError。wait为true时在续期后随机暂停2~4秒，这是对服务商请求
// 频率的约定节奏，不是可有可无的延迟。
func (c *Client) KeepAlive(ctx context.Context, wait bool) error {
	if err := c.renewToken(ctx); err != nil {
		return err
	}

	if wait {
		return c.sleep(ctx, 2, 4)
	}
	return nil
}

// renewToken 执行一次完整的token续期。整个流程在renewMu下串行，
// 同一时刻最多只有一个续期请求在途。
func (c *Client) renewToken(ctx context.Context) error {
	c.renewMu.Lock()
	defer c.renewMu.Unlock()

	c.mu.Lock()
	sid := c.sid
	c.mu.Unlock()

	if sid == "" {
		return &AuthError{Reason: "session id is not set, call Initialize first"}
	}

	url := fmt.Sprintf("%s/v1/client/sessions/%s/tokens/api?_clerk_js_version=%s", c.clerkURL, sid, clerkJSVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return &AuthError{Reason: "failed to build renew request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", c.cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.clearToken()
		return &AuthError{Reason: "token renewal request failed", Err: err}
	}
	defer resp.Body.Close()

	var renewResp struct {
		JWT string `json:"jwt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&renewResp); err != nil {
		c.clearToken()
		return &AuthError{Reason: "failed to decode renew response", Err: err}
	}
	if renewResp.JWT == "" {
		c.clearToken()
		return &AuthError{Reason: "renew response contains no jwt"}
	}

	c.mu.Lock()
	c.token = renewResp.JWT
	c.mu.Unlock()

	logger.Debug("[Suno] token续期成功")
	return nil
}

// clearToken 续期失败后回到未认证状态，后续调用快速失败
func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// currentToken 读取当前token
func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// apiRequest 构造携带cookie与bearer token的API请求
func (c *Client) apiRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", c.cookie)
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Credits 查询服务商侧的账户点数
func (c *Client) Credits(ctx context.Context) (*Credits, error) {
	if err := c.KeepAlive(ctx, false); err != nil {
		return nil, err
	}

	req, err := c.apiRequest(ctx, http.MethodGet, c.baseURL+"/api/billing/info/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build billing request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("billing request returned status %d", resp.StatusCode)
	}

	var billing struct {
		TotalCreditsLeft int64  `json:"total_credits_left"`
		Period           string `json:"period"`
		MonthlyLimit     int64  `json:"monthly_limit"`
		MonthlyUsage     int64  `json:"monthly_usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&billing); err != nil {
		return nil, fmt.Errorf("failed to decode billing response: %w", err)
	}

	return &Credits{
		CreditsLeft:  billing.TotalCreditsLeft,
		Period:       billing.Period,
		MonthlyLimit: billing.MonthlyLimit,
		MonthlyUsage: billing.MonthlyUsage,
	}, nil
}
