/*
 * @module service/simulation/simulation_service
 * @description 模拟编排服务：快照加载、逐组合编译绑定积分、结果事务化持久化、运行报告
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 快照加载 -> 编译(批内共享) -> 按(情景,响应方案)绑定 -> 积分 -> 周桶化
 *            -> 先删后插持久化 -> 运行报告
 * @rules 单个组合的运行期错误不影响队列中其余组合；结果写入按组合事务化，
 *        读取方不可见"已删未插"的中间状态；诊断列表是一等返回值
 * @dependencies gorm.io/gorm, github.com/prometheus/client_golang
 * @refs service/engine, service/models
 */

package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"samra-service/service/config"
	"samra-service/service/distributed_lock"
	"samra-service/service/engine"
	"samra-service/service/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	runTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "samra_simulation_runs_total",
		Help: "模拟运行次数，按结果状态统计",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "samra_simulation_run_duration_seconds",
		Help:    "单个(情景,响应方案)组合的模拟耗时",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// PersistenceError 结果持久化失败，对调用方表现为该组合运行失败
type PersistenceError struct {
	ScenarioID int
	ResponseID int
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("结果持久化失败(情景 %d, 响应方案 %d): %v", e.ScenarioID, e.ResponseID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RunRequest 一次批量模拟请求
type RunRequest struct {
	ModelID           int                   `json:"model_id"`
	ScenarioIDs       []int                 `json:"scenario_ids"`
	ResponseOptionIDs []int                 `json:"response_option_ids"`
	Geography         engine.GeographyScope `json:"geography"`
	StartDate         time.Time             `json:"start_date"`
	EndDate           time.Time             `json:"end_date"`
	StepDays          float64               `json:"step_days"` // 0 表示使用配置默认值
}

// RunReport 单个(情景,响应方案)组合的运行报告
type RunReport struct {
	ScenarioID       int                 `json:"scenario_id"`
	ResponseOptionID int                 `json:"response_option_id"`
	Success          bool                `json:"success"`
	Error            string              `json:"error,omitempty"`
	Warnings         []engine.Diagnostic `json:"warnings"` // 编译+绑定阶段告警
	PointsWritten    int                 `json:"points_written"`
}

// RunSummary 批量模拟的汇总结果
type RunSummary struct {
	ModelID   int                   `json:"model_id"`
	Geography engine.GeographyScope `json:"geography"`
	Reports   []RunReport           `json:"reports"`
}

// Service 模拟编排服务
type Service struct {
	db         *gorm.DB
	cfg        *config.RuntimeConfig
	lock       distributed_lock.DistributedLock // 可为 nil，未启用时跳过防重
	aggregator *engine.Aggregator
}

// NewService 创建模拟编排服务
func NewService(db *gorm.DB, cfg *config.RuntimeConfig, lock distributed_lock.DistributedLock) *Service {
	agg := engine.NewAggregator()
	agg.WeekAnchor = cfg.WeekAnchor
	agg.UnitDividers = cfg.CostUnitDividers
	agg.DefaultDivider = cfg.DefaultCostDivider
	return &Service{db: db, cfg: cfg, lock: lock, aggregator: agg}
}

// Run 执行一批模拟：每个(情景,响应方案)组合独立编译绑定积分并持久化
// 模型图和常量取值表在入口处一次性快照，运行期间的并发编辑不被观察
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunSummary, error) {
	if len(req.ScenarioIDs) == 0 || len(req.ResponseOptionIDs) == 0 {
		return nil, fmt.Errorf("情景和响应方案列表不能为空")
	}
	stepDays := req.StepDays
	if stepDays <= 0 {
		stepDays = s.cfg.DefaultStepDays
	}

	snap, err := s.loadSnapshot(req)
	if err != nil {
		return nil, fmt.Errorf("加载模型快照失败: %w", err)
	}

	compiled := engine.Compile(snap)
	slog.Info("模型编译完成",
		"model_id", req.ModelID,
		"variables", len(compiled.Variables),
		"stocks", len(compiled.Stocks),
		"outputs", len(compiled.OutputIDs),
		"warnings", len(compiled.Diagnostics),
	)

	summary := &RunSummary{ModelID: req.ModelID, Geography: req.Geography}
	for _, scenarioID := range req.ScenarioIDs {
		for _, responseID := range req.ResponseOptionIDs {
			report := s.runTriple(ctx, compiled, snap, req, scenarioID, responseID, stepDays)
			summary.Reports = append(summary.Reports, report)
		}
	}
	return summary, nil
}

// loadSnapshot 在运行起点一次性加载模型图与全部常量取值层
func (s *Service) loadSnapshot(req RunRequest) (*engine.Snapshot, error) {
	snap := &engine.Snapshot{
		ModelID:   req.ModelID,
		Geography: req.Geography,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	if err := s.db.Where("model_id = ?", req.ModelID).Find(&snap.Variables).Error; err != nil {
		return nil, err
	}
	if len(snap.Variables) == 0 {
		return nil, fmt.Errorf("模型 %d 不存在或没有变量", req.ModelID)
	}

	variableIDs := make([]int, 0, len(snap.Variables))
	for _, v := range snap.Variables {
		variableIDs = append(variableIDs, v.ID)
	}

	loaders := []error{
		s.db.Where("variable_id IN ?", variableIDs).Find(&snap.HouseholdValues).Error,
		s.db.Where("variable_id IN ?", variableIDs).Find(&snap.ScenarioValues).Error,
		s.db.Where("variable_id IN ?", variableIDs).Find(&snap.ResponseValues).Error,
		s.db.Where("variable_id IN ?", variableIDs).Find(&snap.PulseValues).Error,
		s.db.Where("variable_id IN ? AND date <= ?", variableIDs, req.EndDate).
			Find(&snap.MeasuredPoints).Error,
		s.db.Where("variable_id IN ?", variableIDs).Find(&snap.SeasonalPoints).Error,
		s.db.Where("variable_id IN ? AND date <= ?", variableIDs, req.EndDate).
			Find(&snap.ForecastedPoints).Error,
	}
	for _, err := range loaders {
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// runTriple 执行一个(情景,响应方案,地理范围)组合并持久化结果
func (s *Service) runTriple(ctx context.Context, compiled *engine.CompiledModel, snap *engine.Snapshot,
	req RunRequest, scenarioID, responseID int, stepDays float64) RunReport {

	started := time.Now()
	report := RunReport{ScenarioID: scenarioID, ResponseOptionID: responseID}
	report.Warnings = append(report.Warnings, compiled.Diagnostics...)

	if s.lock != nil {
		key := fmt.Sprintf("samra:run:%d:%d:%d:%s:%s:%s",
			req.ModelID, scenarioID, responseID,
			req.Geography.Country, req.Geography.Region, req.Geography.Locality)
		acquired, err := s.lock.TryLock(ctx, key, 10*time.Minute)
		if err != nil {
			slog.Warn("运行锁获取异常，继续执行", "key", key, "error", err)
		} else if !acquired {
			report.Error = "同一组合的模拟正在其他实例上执行"
			s.finishRun(req, scenarioID, responseID, stepDays, report, started)
			return report
		} else {
			defer func() {
				if err := s.lock.Unlock(context.Background(), key); err != nil {
					slog.Warn("运行锁释放失败", "key", key, "error", err)
				}
			}()
		}
	}

	bound := engine.Bind(compiled, snap, scenarioID, responseID)
	report.Warnings = append(report.Warnings, bound.Diagnostics...)

	result, err := engine.RunSimulation(bound, req.StartDate, req.EndDate, stepDays)
	if err != nil {
		// 运行期错误对该组合致命，绝不静默置零，其余组合继续执行
		report.Error = err.Error()
		s.finishRun(req, scenarioID, responseID, stepDays, report, started)
		return report
	}

	written, err := s.persistResults(req, compiled, result)
	if err != nil {
		report.Error = (&PersistenceError{ScenarioID: scenarioID, ResponseID: responseID, Err: err}).Error()
		s.finishRun(req, scenarioID, responseID, stepDays, report, started)
		return report
	}

	report.Success = true
	report.PointsWritten = written
	s.finishRun(req, scenarioID, responseID, stepDays, report, started)
	return report
}

// persistResults 周桶化后按组合键先删后插，整个替换在单个事务内完成
func (s *Service) persistResults(req RunRequest, compiled *engine.CompiledModel, result *engine.ResultSet) (int, error) {
	rows := make([]models.SimulatedDataPoint, 0, 256)
	for _, id := range compiled.OutputIDs {
		for _, bucket := range s.aggregator.BucketWeekly(result.Series[id]) {
			rows = append(rows, models.SimulatedDataPoint{
				VariableID:       id,
				Date:             bucket.Date,
				Value:            bucket.Value,
				ScenarioID:       result.ScenarioID,
				ResponseOptionID: result.ResponseID,
				Country:          req.Geography.Country,
				Region:           req.Geography.Region,
				Locality:         req.Geography.Locality,
			})
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"scenario_id = ? AND response_option_id = ? AND country = ? AND region = ? AND locality = ?",
			result.ScenarioID, result.ResponseID,
			req.Geography.Country, req.Geography.Region, req.Geography.Locality,
		).Delete(&models.SimulatedDataPoint{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// finishRun 记录运行记录和监控指标
func (s *Service) finishRun(req RunRequest, scenarioID, responseID int, stepDays float64,
	report RunReport, started time.Time) {

	status := models.SimulationRunStatusSuccess
	metric := "success"
	if !report.Success {
		status = models.SimulationRunStatusFailed
		metric = "failed"
	}
	runTotal.WithLabelValues(metric).Inc()
	runDuration.Observe(time.Since(started).Seconds())

	now := time.Now()
	run := models.SimulationRun{
		ModelID:          req.ModelID,
		ScenarioID:       scenarioID,
		ResponseOptionID: responseID,
		Country:          req.Geography.Country,
		Region:           req.Geography.Region,
		Locality:         req.Geography.Locality,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		StepDays:         stepDays,
		Status:           status,
		ErrorMessage:     report.Error,
		Diagnostics:      diagnosticsToJSONB(report.Warnings),
		FinishedAt:       &now,
	}
	if err := s.db.Create(&run).Error; err != nil {
		slog.Error("运行记录写入失败", "error", err)
	}
}

func diagnosticsToJSONB(diags []engine.Diagnostic) models.JSONBArray {
	out := make(models.JSONBArray, 0, len(diags))
	for _, d := range diags {
		out = append(out, models.JSONB{
			"stage":         d.Stage,
			"variable_id":   d.VariableID,
			"variable_name": d.VariableName,
			"message":       d.Message,
		})
	}
	return out
}
