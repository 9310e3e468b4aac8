/*
 * @module service/scheduler/scheduler_service
 * @description 模拟调度器：按 cron 周期性重算已保存的运行配置
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 启动调度器 -> 加载启用的运行配置 -> 定时触发 -> 调用模拟编排服务
 * @rules 配置未指定 cron 表达式时使用全局默认调度；单个配置执行失败只记录日志
 * @dependencies github.com/robfig/cron/v3
 * @refs service/simulation/simulation_service.go, service/models/simulation.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"samra-service/service/config"
	"samra-service/service/engine"
	"samra-service/service/models"
	"samra-service/service/simulation"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// SchedulerService 定时重算调度器
type SchedulerService struct {
	db         *gorm.DB
	cfg        *config.RuntimeConfig
	simulation *simulation.Service
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
}

// NewSchedulerService 创建调度器
func NewSchedulerService(db *gorm.DB, cfg *config.RuntimeConfig, sim *simulation.Service) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SchedulerService{
		db:         db,
		cfg:        cfg,
		simulation: sim,
		cron:       cron.New(cron.WithSeconds()),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 加载启用的运行配置并启动调度
func (s *SchedulerService) Start() error {
	if s.started {
		return fmt.Errorf("调度器已经启动")
	}

	var configs []models.SimulationRunConfig
	if err := s.db.Where("is_enabled = ?", true).Find(&configs).Error; err != nil {
		return fmt.Errorf("加载运行配置失败: %w", err)
	}

	for _, rc := range configs {
		expr := rc.CronExpression
		if expr == "" {
			expr = s.cfg.SchedulerCron
		}
		runConfig := rc
		if _, err := s.cron.AddFunc(expr, func() { s.execute(runConfig) }); err != nil {
			slog.Error("运行配置调度注册失败", "config_id", rc.ID, "cron", expr, "error", err)
			continue
		}
		slog.Info("运行配置已注册调度", "config_id", rc.ID, "name", rc.Name, "cron", expr)
	}

	s.cron.Start()
	s.started = true
	slog.Info("模拟调度器已启动", "configs", len(configs))
	return nil
}

// Stop 停止调度器
func (s *SchedulerService) Stop() {
	if !s.started {
		return
	}
	s.cancel()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.started = false
	slog.Info("模拟调度器已停止")
}

// Entries 当前注册的调度条目数
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

// execute 执行一条运行配置：模拟区间从当天起算 HorizonDays 天
func (s *SchedulerService) execute(rc models.SimulationRunConfig) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	req := simulation.RunRequest{
		ModelID:           rc.ModelID,
		ScenarioIDs:       toIntSlice(rc.ScenarioIDs),
		ResponseOptionIDs: toIntSlice(rc.ResponseOptionIDs),
		Geography: engine.GeographyScope{
			Country:  rc.Country,
			Region:   rc.Region,
			Locality: rc.Locality,
		},
		StartDate: start,
		EndDate:   start.AddDate(0, 0, rc.HorizonDays),
		StepDays:  rc.StepDays,
	}

	summary, err := s.simulation.Run(s.ctx, req)
	if err != nil {
		slog.Error("定时模拟执行失败", "config_id", rc.ID, "error", err)
		return
	}

	failed := 0
	for _, report := range summary.Reports {
		if !report.Success {
			failed++
		}
	}
	slog.Info("定时模拟执行完成",
		"config_id", rc.ID,
		"combinations", len(summary.Reports),
		"failed", failed,
	)
}

// toIntSlice JSONB 数组反序列化后是 []interface{}，统一转为 int 切片
func toIntSlice(raw models.JSONBGenericArray) []int {
	ids := make([]int, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, cast.ToInt(v))
	}
	return ids
}
