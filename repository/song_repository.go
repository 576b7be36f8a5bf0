package repository

import (
	"errors"
	"fmt"
	"time"

	"MuseGen/model"

	"gorm.io/gorm"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	// CreateBatch 在一个事务中写入一批歌曲记录，任一失败则整批回滚
	CreateBatch(songs []*model.Song) error
	ListByUser(userID int64, pageNum, pageSize int) ([]model.Song, int64, error)
	GetByID(songID, userID int64) (*model.Song, error)
	SoftDelete(songID, userID int64) error
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewSongRepository creates a new GORM-backed song repository.
func NewSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

func (r *gormSongRepository) CreateBatch(songs []*model.Song) error {
	if len(songs) == 0 {
		return nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, song := range songs {
			if err := tx.Create(song).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create song batch: %w", err)
	}
	return nil
}

// ListByUser 分页查询用户的歌曲，按插入ID倒序。
// 并发生成的保存顺序不确定，排序键只能用ID，不能依赖入库的时间先后。
func (r *gormSongRepository) ListByUser(userID int64, pageNum, pageSize int) ([]model.Song, int64, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	base := r.db.Model(&model.Song{}).Where("user_id = ? AND is_active = ?", userID, true)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count songs: %w", err)
	}

	var songs []model.Song
	err := base.Order("id DESC").
		Offset((pageNum - 1) * pageSize).
		Limit(pageSize).
		Find(&songs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list songs: %w", err)
	}

	return songs, total, nil
}

func (r *gormSongRepository) GetByID(songID, userID int64) (*model.Song, error) {
	var song model.Song
	err := r.db.Where("id = ? AND user_id = ? AND is_active = ?", songID, userID, true).First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query song %d: %w", songID, err)
	}
	return &song, nil
}

// SoftDelete 软删除歌曲，保留记录仅翻转active标记
func (r *gormSongRepository) SoftDelete(songID, userID int64) error {
	now := time.Now()
	result := r.db.Model(&model.Song{}).
		Where("id = ? AND user_id = ? AND is_active = ?", songID, userID, true).
		Updates(map[string]interface{}{"is_active": false, "deleted_at": &now})
	if result.Error != nil {
		return fmt.Errorf("failed to delete song %d: %w", songID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
