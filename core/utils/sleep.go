package utils

import (
	"context"
	"math/rand"
	"time"
)

// Sleep 随机暂停 [minSec, maxSec] 秒，用于拉开轮询间隔，
// 避免对外部API形成固定节奏的请求。minSec == maxSec 时为固定时长。
// context取消时提前返回其错误。
func Sleep(ctx context.Context, minSec, maxSec int) error {
	if maxSec < minSec {
		minSec, maxSec = maxSec, minSec
	}

	seconds := minSec
	if maxSec > minSec {
		seconds = minSec + rand.Intn(maxSec-minSec+1)
	}

	return SleepFor(ctx, time.Duration(seconds)*time.Second)
}

// SleepFor 可取消的定时等待
func SleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
