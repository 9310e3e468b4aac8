/*
 * @module service/cleanup/run_cleanup_service
 * @description 运行记录清理服务，负责定期清理过期的模拟运行记录
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 定时触发 -> 读取保留期 -> 执行清理 -> 记录结果
 * @rules 只清理运行记录，模拟结果数据点不在清理范围内
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/models/simulation.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"samra-service/service/models"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// DefaultRunRetentionDays 运行记录默认保留天数
const DefaultRunRetentionDays = 90

// RunCleanupService 模拟运行记录清理服务
type RunCleanupService struct {
	db            *gorm.DB
	retentionDays int
	cron          *cron.Cron
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
}

// NewRunCleanupService 创建运行记录清理服务实例
func NewRunCleanupService(db *gorm.DB) *RunCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	retentionDays := DefaultRunRetentionDays
	if raw := os.Getenv("RUN_RETENTION_DAYS"); raw != "" {
		if v := cast.ToInt(raw); v > 0 {
			retentionDays = v
		}
	}

	return &RunCleanupService{
		db:            db,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithSeconds()),
		ctx:           ctx,
		cancel:        cancel,
		started:       false,
	}
}

// CleanupExpiredRuns 清理保留期外的模拟运行记录
func (s *RunCleanupService) CleanupExpiredRuns(ctx context.Context) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -s.retentionDays)

	slog.Debug("清理模拟运行记录",
		"cutoff_date", cutoffDate.Format("2006-01-02 15:04:05"),
		"retention_days", s.retentionDays)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoffDate).
		Delete(&models.SimulationRun{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除模拟运行记录失败: %w", result.Error)
	}

	slog.Info("运行记录清理完成",
		"deleted_count", result.RowsAffected,
		"retention_days", s.retentionDays)
	return result.RowsAffected, nil
}

// StartScheduledCleanup 启动定时清理任务
func (s *RunCleanupService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("运行记录清理调度器已经启动")
	}

	// 每天凌晨4点执行清理，避开凌晨的定时模拟重算
	_, err := s.cron.AddFunc("0 0 4 * * *", func() {
		if _, err := s.CleanupExpiredRuns(s.ctx); err != nil {
			slog.Error("定时运行记录清理失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true

	slog.Info("运行记录清理调度器已启动", "retention_days", s.retentionDays)
	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *RunCleanupService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.started = false

	slog.Info("运行记录清理调度器已停止")
}
