package song

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"MuseGen/core/notify"
	"MuseGen/core/suno"
	"MuseGen/core/utils"
	"MuseGen/db"
	"MuseGen/logger"
	"MuseGen/model"
)

// DownloadError 媒体文件下载失败
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// saveMeta 保存批次时携带的生成参数
type saveMeta struct {
	title        string
	instrumental bool
	isCustom     bool
}

// asset 一次待下载的媒体文件
type asset struct {
	url  string
	dest string
}

// savedPaths 一条结果下载完成后的本站路径
type savedPaths struct {
	imageURL string
	audioURL string
}

// saveSongs 后台保存流水线：下载媒体、改写URL、整批入库。
// 批次内任一下载失败则整批放弃，不写入任何记录（全有或全无）。
// 无论成败都更新任务标记并推送给用户。
func (s *Service) saveSongs(ctx context.Context, jobID string, audios []suno.AudioInfo, user *model.User, meta saveMeta) {
	paths, err := s.downloadAll(ctx, audios)
	if err != nil {
		logger.Error("[Song] 媒体下载失败，放弃整批保存",
			logger.String("jobId", jobID),
			logger.ErrorField(err))
		s.finishJob(ctx, jobID, user.ID, nil, err)
		return
	}

	studio, team, err := s.userRepo.OrgOf(user.ID)
	if err != nil {
		logger.Warn("[Song] 查询用户组织失败", logger.ErrorField(err))
	}

	songs := make([]*model.Song, 0, len(audios))
	for _, audio := range audios {
		local, ok := paths[audio.ID]
		if !ok {
			// 缺少媒体URL的结果在下载阶段被跳过，不入库
			continue
		}

		song := &model.Song{
			UserID:               user.ID,
			SunoID:               audio.ID,
			Title:                audio.Title,
			ImageURL:             local.imageURL,
			AudioURL:             local.audioURL,
			VideoURL:             audio.VideoURL,
			ModelName:            audio.ModelName,
			GPTDescriptionPrompt: audio.GPTDescriptionPrompt,
			Type:                 audio.Type,
			Prompt:               audio.Prompt,
			Lyrics:               audio.Lyric,
			Tags:                 audio.Tags,
			MakeInstrumental:     meta.instrumental,
			IsCustom:             meta.isCustom,
			IsActive:             true,
		}
		if song.Title == "" {
			song.Title = meta.title
		}
		if studio != nil {
			song.StudioID = studio.ID
		}
		if team != nil {
			song.TeamID = team.ID
		}
		songs = append(songs, song)
	}

	if err := s.songRepo.CreateBatch(songs); err != nil {
		logger.Error("[Song] 歌曲入库失败，整批回滚",
			logger.String("jobId", jobID),
			logger.ErrorField(err))
		s.finishJob(ctx, jobID, user.ID, nil, err)
		return
	}

	songIDs := make([]int64, 0, len(songs))
	for _, song := range songs {
		songIDs = append(songIDs, song.ID)
	}

	logger.Info("[Song] 后台保存完成",
		logger.String("jobId", jobID),
		logger.Int64("userId", user.ID),
		logger.Int("count", len(songs)))
	s.finishJob(ctx, jobID, user.ID, songIDs, nil)
}

// downloadAll 并发下载所有结果的封面与音频，返回按track id索引的本站路径。
// 缺少封面或音频URL的结果被跳过；任一下载失败则整批失败。
func (s *Service) downloadAll(ctx context.Context, audios []suno.AudioInfo) (map[string]savedPaths, error) {
	paths := make(map[string]savedPaths)
	var assets []asset

	for _, audio := range audios {
		if audio.ImageURL == "" || audio.AudioURL == "" {
			logger.Warn("[Song] 结果缺少媒体URL，跳过保存", logger.String("id", audio.ID))
			continue
		}

		imageName := utils.FileNameFromURL(audio.ImageURL, ".jpeg")
		audioName := utils.FileNameFromURL(audio.AudioURL, ".mp3")
		if imageName == "" || audioName == "" {
			return nil, &DownloadError{URL: audio.AudioURL, Err: fmt.Errorf("cannot derive filename")}
		}

		assets = append(assets,
			asset{url: audio.ImageURL, dest: filepath.Join(s.cfg.FilesDir, "image", imageName)},
			asset{url: audio.AudioURL, dest: filepath.Join(s.cfg.FilesDir, "audio", audioName)},
		)
		paths[audio.ID] = savedPaths{
			imageURL: "/files/image/" + imageName,
			audioURL: "/files/audio/" + audioName,
		}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, a := range assets {
		wg.Add(1)
		go func(a asset) {
			defer wg.Done()
			if err := utils.DownloadFile(ctx, s.downloadClient, a.url, a.dest); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &DownloadError{URL: a.url, Err: err}
				}
				mu.Unlock()
			}
		}(a)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return paths, nil
}

// finishJob 更新保存任务标记并向用户推送结果
func (s *Service) finishJob(ctx context.Context, jobID string, userID int64, songIDs []int64, saveErr error) {
	status := db.SaveJobStatus{
		JobID:   jobID,
		UserID:  userID,
		SongIDs: songIDs,
		Status:  db.SaveJobComplete,
	}
	evt := notify.Event{
		Type:    notify.EventSaveComplete,
		JobID:   jobID,
		SongIDs: songIDs,
	}

	if saveErr != nil {
		status.Status = db.SaveJobFailed
		status.Error = saveErr.Error()
		evt.Type = notify.EventSaveFailed
		evt.Message = saveErr.Error()
	}

	if err := s.setJob(ctx, status); err != nil {
		logger.Warn("[Song] 更新保存任务标记失败",
			logger.String("jobId", jobID),
			logger.ErrorField(err))
	}

	if s.hub != nil {
		s.hub.Publish(userID, evt)
	}
}
