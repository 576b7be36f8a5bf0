package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"MuseGen/logger"
)

// DownloadFile 流式下载文件到指定路径，父目录不存在时自动创建
func DownloadFile(ctx context.Context, client *http.Client, rawURL, destPath string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("创建下载请求失败: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("下载文件失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载文件失败，状态码: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("保存文件失败: %w", err)
	}

	logger.Debug("[Download] 文件下载完成",
		logger.String("url", rawURL),
		logger.Int64("bytes", written))
	return nil
}

// FileNameFromURL 从媒体URL的末段推导本地文件名。
// 服务商的URL有两种形态：
//   .../audio/clip=abc123.mp3 -> abc123.mp3
//   .../audio/clip-xyz789     -> xyz789 + defaultExt
// 末段无扩展名时补上defaultExt。
func FileNameFromURL(rawURL, defaultExt string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Path
	}
	name = path.Base(name)

	if idx := strings.LastIndex(name, "="); idx >= 0 {
		name = name[idx+1:]
	} else if rest, ok := strings.CutPrefix(name, "clip-"); ok {
		name = rest
	}

	if name == "" || name == "." || name == "/" {
		return ""
	}

	if path.Ext(name) == "" && defaultExt != "" {
		if !strings.HasPrefix(defaultExt, ".") {
			defaultExt = "." + defaultExt
		}
		name += defaultExt
	}

	return name
}
