package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mall_dev_v1_202609/internal/middleware"
	"mall_dev_v1_202609/internal/repository"
)

// OTP 哈希超过该时长仍未消费则视为残留，直接清掉
const staleOTPAge = 24 * time.Hour

// 限流条目最后访问超过该时长即可回收（远大于所有限流间隔）
const throttleEntryMaxAge = time.Hour

// CleanupTask 后台清理任务
// 周期性清理两类过期数据：已过期的吊销 Token 记录、长期未消费的 OTP 哈希
type CleanupTask struct {
	tokenRepo repository.RevokedTokenRepository
	userRepo  repository.UserRepository
	logger    *zap.Logger
	cron      *cron.Cron
}

// NewCleanupTask 创建清理任务
func NewCleanupTask(
	tokenRepo repository.RevokedTokenRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *CleanupTask {
	return &CleanupTask{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start 启动定时任务
func (t *CleanupTask) Start() error {
	// 首次执行：服务刚启动就把积压的过期数据清掉
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		t.runOnce(ctx)
	}()

	// 每小时整点执行一次
	if _, err := t.cron.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		t.runOnce(ctx)
	}); err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("清理任务已启动", zap.String("schedule", "每小时一次"))
	return nil
}

// Stop 停止定时任务，等待在途任务结束
func (t *CleanupTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
}

func (t *CleanupTask) runOnce(ctx context.Context) {
	now := time.Now()

	tokens, err := t.tokenRepo.DeleteExpired(ctx, now)
	if err != nil {
		t.logger.Error("清理过期吊销记录失败", zap.Error(err))
	} else if tokens > 0 {
		t.logger.Info("清理过期吊销记录", zap.Int64("count", tokens))
	}

	otps, err := t.userRepo.ClearStaleOTP(ctx, now.Add(-staleOTPAge))
	if err != nil {
		t.logger.Error("清理残留 OTP 失败", zap.Error(err))
	} else if otps > 0 {
		t.logger.Info("清理残留 OTP", zap.Int64("count", otps))
	}

	if evicted := middleware.GetLimiter().Sweep(throttleEntryMaxAge); evicted > 0 {
		t.logger.Info("回收限流条目", zap.Int("count", evicted))
	}
}
