package song

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"MuseGen/config"
	"MuseGen/core/notify"
	"MuseGen/core/suno"
	"MuseGen/db"
	"MuseGen/logger"
	"MuseGen/model"
	"MuseGen/repository"

	"github.com/google/uuid"
)

// Generator 生成服务对外部API客户端的依赖
type Generator interface {
	Generate(ctx context.Context, description, title string, instrumental, wait bool) ([]suno.AudioInfo, error)
	CustomGenerate(ctx context.Context, lyrics, tags, title string, instrumental, wait bool) ([]suno.AudioInfo, error)
	Fetch(ctx context.Context, ids []string) ([]suno.AudioInfo, error)
}

// GenerateParams 简单生成：只需要一段描述
type GenerateParams struct {
	Description  string
	Title        string
	Instrumental bool
}

// CustomGenerateParams 自定义生成：歌词+风格标签
type CustomGenerateParams struct {
	Lyrics       string
	Styles       string
	Title        string
	Instrumental bool
}

// GenerateResult 生成接口的同步返回：服务商的临时数据加后台保存任务ID。
// 媒体下载与入库在后台进行，结果通过保存任务标记和歌曲列表观察。
type GenerateResult struct {
	Audios    []suno.AudioInfo `json:"audios"`
	SaveJobID string           `json:"saveJobId"`
}

// Service 歌曲生成服务：并发闸门、生成编排和后台保存流水线
type Service struct {
	generator Generator
	songRepo  repository.SongRepository
	userRepo  repository.UserRepository
	hub       *notify.Hub
	cfg       *config.Config

	// 并发闸门：限制同时对外部API进行的生成流程数。
	// 提交前获取，后台保存结束后释放。
	gate chan struct{}

	// 下载媒体文件的HTTP客户端
	downloadClient *http.Client

	// 测试注入点：保存任务标记的读写默认走Redis
	setJob func(ctx context.Context, status db.SaveJobStatus) error
}

// NewService 创建歌曲生成服务
func NewService(
	generator Generator,
	songRepo repository.SongRepository,
	userRepo repository.UserRepository,
	hub *notify.Hub,
	cfg *config.Config,
) *Service {
	bound := cfg.GenConcurrency
	if bound < 1 {
		bound = 1
	}

	return &Service{
		generator: generator,
		songRepo:  songRepo,
		userRepo:  userRepo,
		hub:       hub,
		cfg:       cfg,
		gate:      make(chan struct{}, bound),
		downloadClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		setJob: db.SetSaveJob,
	}
}

// acquireGate 进入并发闸门，先到先得
func (s *Service) acquireGate(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for generation slot: %w", ctx.Err())
	}
}

func (s *Service) releaseGate() {
	<-s.gate
}

// Generate 提交一次简单生成并等待完成，随后派发后台保存。
// 返回的结果列表可能不完整（等待超时），空列表由上层按超时呈现。
func (s *Service) Generate(ctx context.Context, p GenerateParams, user *model.User) (*GenerateResult, error) {
	if err := s.acquireGate(ctx); err != nil {
		return nil, err
	}

	audios, err := s.generator.Generate(ctx, p.Description, p.Title, p.Instrumental, true)
	if err != nil {
		s.releaseGate()
		return nil, err
	}
	if len(audios) == 0 {
		s.releaseGate()
		return &GenerateResult{}, nil
	}

	jobID := s.dispatchSave(audios, user, saveMeta{
		title:        p.Title,
		instrumental: p.Instrumental,
		isCustom:     false,
	})

	return &GenerateResult{Audios: audios, SaveJobID: jobID}, nil
}

// CustomGenerate 提交一次自定义生成并等待完成，随后派发后台保存
func (s *Service) CustomGenerate(ctx context.Context, p CustomGenerateParams, user *model.User) (*GenerateResult, error) {
	if err := s.acquireGate(ctx); err != nil {
		return nil, err
	}

	audios, err := s.generator.CustomGenerate(ctx, p.Lyrics, p.Styles, p.Title, p.Instrumental, true)
	if err != nil {
		s.releaseGate()
		return nil, err
	}
	if len(audios) == 0 {
		s.releaseGate()
		return &GenerateResult{}, nil
	}

	jobID := s.dispatchSave(audios, user, saveMeta{
		title:        p.Title,
		instrumental: p.Instrumental,
		isCustom:     true,
	})

	return &GenerateResult{Audios: audios, SaveJobID: jobID}, nil
}

// dispatchSave 记录当日配额、写入pending标记并启动后台保存。
// 后台保存与请求上下文脱钩，调用方断开不影响保存流程；
// 闸门在保存结束时释放。
func (s *Service) dispatchSave(audios []suno.AudioInfo, user *model.User, meta saveMeta) string {
	jobID := uuid.New().String()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)

	if err := db.IncrDailyCount(ctx, user.ID, int64(len(audios))); err != nil {
		logger.Warn("[Song] 更新当日生成计数失败", logger.ErrorField(err))
	}
	if err := s.setJob(ctx, db.SaveJobStatus{
		JobID:  jobID,
		UserID: user.ID,
		Status: db.SaveJobPending,
	}); err != nil {
		logger.Warn("[Song] 写入保存任务标记失败", logger.ErrorField(err))
	}

	go func() {
		defer cancel()
		defer s.releaseGate()
		s.saveSongs(ctx, jobID, audios, user, meta)
	}()

	return jobID
}

// RemainingCredits 用户当日剩余的生成次数。一次提交产生两首歌，
// 配额以本地当日计数为准，与服务商侧的点数无关。
func (s *Service) RemainingCredits(ctx context.Context, userID int64) (int, error) {
	count, err := db.GetDailyCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	remaining := (s.cfg.DailyFree - int(count)) / 2
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
