package storage

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"MuseGen/config"
	"MuseGen/logger"

	"github.com/fsnotify/fsnotify"
)

// Mirror 监听本地媒体目录，把新下载的文件异步上传到MinIO归档。
// 本地磁盘是文件服务的权威来源，归档只是备份，上传失败不影响主流程。
type Mirror struct {
	cfg     *config.Config
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time // 等待写入稳定的文件

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMirror 创建归档镜像，监听files目录下的audio和image子目录
func NewMirror(cfg *config.Config) (*Mirror, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	m := &Mirror{
		cfg:      cfg,
		watcher:  watcher,
		pending:  make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}

	for _, sub := range []string{"audio", "image"} {
		dir := filepath.Join(cfg.FilesDir, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			watcher.Close()
			return nil, err
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return m, nil
}

// Start 启动监听与上传循环
func (m *Mirror) Start() {
	m.wg.Add(2)
	go m.watchLoop()
	go m.uploadLoop()
	logger.Info("[Mirror] 媒体归档镜像已启动", logger.String("dir", m.cfg.FilesDir))
}

// Stop 停止镜像并等待循环退出
func (m *Mirror) Stop() {
	close(m.stopChan)
	m.watcher.Close()
	m.wg.Wait()
}

// watchLoop 收集文件事件。下载是流式写入，同一文件会触发多次Write，
// 记录最后一次事件时间，等稳定后再上传。
func (m *Mirror) watchLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			m.mu.Lock()
			m.pending[event.Name] = time.Now()
			m.mu.Unlock()
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("[Mirror] 文件监听错误", logger.ErrorField(err))
		}
	}
}

// uploadLoop 周期性检查pending文件，超过静默期的视为写入完成并上传
func (m *Mirror) uploadLoop() {
	defer m.wg.Done()

	const settle = 3 * time.Second
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			now := time.Now()
			var ready []string

			m.mu.Lock()
			for path, last := range m.pending {
				if now.Sub(last) >= settle {
					ready = append(ready, path)
					delete(m.pending, path)
				}
			}
			m.mu.Unlock()

			for _, path := range ready {
				m.upload(path)
			}
		}
	}
}

// upload 上传单个文件，对象名保持files目录下的相对路径
func (m *Mirror) upload(path string) {
	rel, err := filepath.Rel(m.cfg.FilesDir, path)
	if err != nil {
		logger.Warn("[Mirror] 无法计算相对路径", logger.String("path", path))
		return
	}
	objectName := "files/" + filepath.ToSlash(rel)

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := UploadFile(ctx, m.cfg.MinioBucket, objectName, path, contentType); err != nil {
		logger.Warn("[Mirror] 归档上传失败",
			logger.String("object", objectName),
			logger.ErrorField(err))
		return
	}

	logger.Debug("[Mirror] 归档上传完成", logger.String("object", objectName))
}
