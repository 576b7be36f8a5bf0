package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MuseGen/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient 是全局Redis客户端
var RedisClient *redis.Client

// ConnectRedis 初始化Redis连接
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// SaveJobStatus 后台保存任务的状态记录。
// 生成接口同步返回服务商的临时数据，媒体下载与入库在后台完成，
// 这里的标记是调用方查询保存结果的唯一途径。
type SaveJobStatus struct {
	JobID     string  `json:"jobId"`
	UserID    int64   `json:"userId"`
	Status    string  `json:"status"` // pending / complete / failed
	SongIDs   []int64 `json:"songIds,omitempty"`
	Error     string  `json:"error,omitempty"`
	UpdatedAt int64   `json:"updatedAt"`
}

const (
	SaveJobPending  = "pending"
	SaveJobComplete = "complete"
	SaveJobFailed   = "failed"

	saveJobTTL = 7 * 24 * time.Hour
)

// saveJobKey 根据任务ID生成Redis键
func saveJobKey(jobID string) string {
	return fmt.Sprintf("savejob:%s", jobID)
}

// SetSaveJob 写入保存任务状态
func SetSaveJob(ctx context.Context, status SaveJobStatus) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	status.UpdatedAt = time.Now().Unix()
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal save job status: %w", err)
	}

	if err := RedisClient.Set(ctx, saveJobKey(status.JobID), data, saveJobTTL).Err(); err != nil {
		return fmt.Errorf("failed to set save job status: %w", err)
	}
	return nil
}

// GetSaveJob 查询保存任务状态，任务不存在时返回nil
func GetSaveJob(ctx context.Context, jobID string) (*SaveJobStatus, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, saveJobKey(jobID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get save job status: %w", err)
	}

	var status SaveJobStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal save job status: %w", err)
	}
	return &status, nil
}

// dailyCountKey 根据用户ID和日期生成当日生成计数的Redis键
func dailyCountKey(userID int64, day time.Time) string {
	return fmt.Sprintf("gencount:%d:%s", userID, day.Format("2006-01-02"))
}

// IncrDailyCount 在提交生成任务时累加用户当日的生成歌曲数。
// 按提交计数而非按入库计数，避免后台保存未完成期间配额被绕过。
func IncrDailyCount(ctx context.Context, userID int64, n int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := dailyCountKey(userID, time.Now())
	if err := RedisClient.IncrBy(ctx, key, n).Err(); err != nil {
		return fmt.Errorf("failed to incr daily count: %w", err)
	}
	// 48小时后过期，跨午夜的任务也能计入当日
	if err := RedisClient.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set daily count expiration: %w", err)
	}
	return nil
}

// GetDailyCount 查询用户当日已生成的歌曲数
func GetDailyCount(ctx context.Context, userID int64) (int64, error) {
	if RedisClient == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}

	count, err := RedisClient.Get(ctx, dailyCountKey(userID, time.Now())).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get daily count: %w", err)
	}
	return count, nil
}
