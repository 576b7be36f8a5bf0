package suno

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"MuseGen/logger"
)

// generateParams 一次生成任务的内部参数。
// custom模式要求tags+lyrics，简单模式只要求描述，两种payload的字段集不重叠。
type generateParams struct {
	prompt       string // custom模式为歌词，简单模式为歌曲描述
	tags         string
	title        string
	instrumental bool
	isCustom     bool
	wait         bool
}

// Generate 以一段描述提交生成任务。wait为true时阻塞到所有track进入
// 终态或100秒预算用尽，超时返回最后一次轮询的部分结果而非报错。
func (c *Client) Generate(ctx context.Context, description, title string, instrumental, wait bool) ([]AudioInfo, error) {
	start := c.now()
	audios, err := c.generateSongs(ctx, generateParams{
		prompt:       description,
		title:        title,
		instrumental: instrumental,
		wait:         wait,
	})
	logger.Info("[Suno] 生成任务结束",
		logger.Duration("cost", c.now().Sub(start)),
		logger.Int("results", len(audios)))
	return audios, err
}

// CustomGenerate 以歌词+风格标签提交自定义生成任务
func (c *Client) CustomGenerate(ctx context.Context, lyrics, tags, title string, instrumental, wait bool) ([]AudioInfo, error) {
	start := c.now()
	audios, err := c.generateSongs(ctx, generateParams{
		prompt:       lyrics,
		tags:         tags,
		title:        title,
		instrumental: instrumental,
		isCustom:     true,
		wait:         wait,
	})
	logger.Info("[Suno] 自定义生成任务结束",
		logger.Duration("cost", c.now().Sub(start)),
		logger.Int("results", len(audios)))
	return audios, err
}

func (c *Client) generateSongs(ctx context.Context, p generateParams) ([]AudioInfo, error) {
	if err := c.KeepAlive(ctx, false); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"make_instrumental": p.instrumental,
		"mv":                c.model,
		"prompt":            "",
	}
	if p.isCustom {
		payload["tags"] = p.tags
		payload["title"] = p.title
		payload["prompt"] = p.prompt
	} else {
		payload["gpt_description_prompt"] = p.prompt
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate payload: %w", err)
	}

	req, err := c.apiRequest(ctx, http.MethodPost, c.baseURL+"/api/generate/v2/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 提交失败直接上抛，带上服务商的原始错误信息，不重试
		raw, _ := io.ReadAll(resp.Body)
		return nil, &GenerationError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var genResp struct {
		Clips []clip `json:"clips"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	ids := make([]string, 0, len(genResp.Clips))
	for _, cl := range genResp.Clips {
		ids = append(ids, cl.ID)
	}
	logger.Info("[Suno] 生成任务已提交", logger.Strings("ids", ids))

	if !p.wait {
		// 不等待时按服务商的初始状态立即返回，续期一次并按节奏暂停
		if err := c.KeepAlive(ctx, true); err != nil {
			return nil, err
		}
		audios := make([]AudioInfo, 0, len(genResp.Clips))
		for _, cl := range genResp.Clips {
			audios = append(audios, audioFromClip(cl, false))
		}
		return audios, nil
	}

	return c.waitForCompletion(ctx, ids)
}

// waitForCompletion 轮询直到所有track到达终态或预算用尽。
// 每个track的状态显式建模，停机条件是"全部终态或超出deadline"。
// 单次轮询失败在剩余预算内是可重试的，只有认证失败才中断等待。
func (c *Client) waitForCompletion(ctx context.Context, ids []string) ([]AudioInfo, error) {
	if err := c.sleep(ctx, 5, 5); err != nil {
		return nil, err
	}

	deadline := c.now().Add(pollBudget)
	var last []AudioInfo

	for c.now().Before(deadline) {
		audios, err := c.Fetch(ctx, ids)
		switch {
		case err == nil:
			if allTerminal(audios) {
				return audios, nil
			}
			last = audios
		case isAuthError(err):
			return last, err
		default:
			logger.Warn("[Suno] 轮询失败，预算内重试", logger.ErrorField(err))
		}

		if err := c.sleep(ctx, 3, 6); err != nil {
			return last, err
		}
		if err := c.KeepAlive(ctx, true); err != nil {
			return last, err
		}
	}

	// 预算用尽：返回最后一次观察到的部分结果，由边界层决定是否按超时呈现
	logger.Warn("[Suno] 等待生成超时，返回部分结果",
		logger.Strings("ids", ids),
		logger.Int("results", len(last)))
	return last, nil
}

// Fetch 按track id查询feed端点并重建结果记录
func (c *Client) Fetch(ctx context.Context, ids []string) ([]AudioInfo, error) {
	if err := c.KeepAlive(ctx, false); err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/feed/"
	if len(ids) > 0 {
		url = fmt.Sprintf("%s?ids=%s", url, strings.Join(ids, ","))
	}

	req, err := c.apiRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed request returned status %d", resp.StatusCode)
	}

	var clips []clip
	if err := json.NewDecoder(resp.Body).Decode(&clips); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}

	audios := make([]AudioInfo, 0, len(clips))
	for _, cl := range clips {
		audios = append(audios, audioFromClip(cl, true))
	}
	return audios, nil
}

func isAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
