/*
 * @module service/config/runtime_config
 * @description 运行时配置：数据库方言、模拟默认参数、聚合与成本效益配置
 * @architecture 分层架构 - 配置层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 进程启动时从环境变量加载一次，核心层只接收配置结构体，不做环境探测
 * @rules 核心引擎对部署环境的全部依赖都必须收敛到本结构体
 * @dependencies github.com/spf13/cast
 * @refs service/init.go, service/simulation/simulation_service.go
 */

package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cast"
)

// 数据库方言常量
const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// RuntimeConfig 服务运行时配置
type RuntimeConfig struct {
	DBDriver           string             // postgres | sqlite
	DefaultStepDays    float64            // 未指定时的积分步长(天)
	BaselineResponseID int                // 成本效益对比的基线响应方案 id
	WeekAnchor         time.Weekday       // 周桶锚定星期
	CostUnitDividers   map[string]float64 // 成本效益缩放因子，按单位标签
	DefaultCostDivider float64
	SchedulerCron      string // 定时重算的默认 cron 表达式
	RedisEnabled       bool   // 是否启用 Redis 运行锁
}

// Load 从环境变量加载运行时配置
func Load() *RuntimeConfig {
	cfg := &RuntimeConfig{
		DBDriver:           getEnvWithDefault("DB_DRIVER", DBDriverPostgres),
		DefaultStepDays:    cast.ToFloat64(getEnvWithDefault("SIMULATION_STEP_DAYS", "1")),
		BaselineResponseID: cast.ToInt(getEnvWithDefault("BASELINE_RESPONSE_ID", "1")),
		WeekAnchor:         parseWeekAnchor(getEnvWithDefault("AGGREGATION_WEEK_ANCHOR", "monday")),
		CostUnitDividers:   map[string]float64{"1": 1_000_000},
		DefaultCostDivider: 1_000,
		SchedulerCron:      getEnvWithDefault("SCHEDULER_CRON", "0 0 2 * * *"),
		RedisEnabled:       cast.ToBool(getEnvWithDefault("REDIS_LOCK_ENABLED", "false")),
	}

	if raw := os.Getenv("COST_UNIT_DIVIDERS"); raw != "" {
		overrides := map[string]float64{}
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			slog.Warn("COST_UNIT_DIVIDERS 解析失败，使用默认缩放因子", "error", err)
		} else {
			cfg.CostUnitDividers = overrides
		}
	}
	if cfg.DefaultStepDays <= 0 {
		slog.Warn("SIMULATION_STEP_DAYS 非正，重置为 1")
		cfg.DefaultStepDays = 1
	}
	return cfg
}

func parseWeekAnchor(name string) time.Weekday {
	anchors := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	if day, ok := anchors[cast.ToString(name)]; ok {
		return day
	}
	return time.Monday
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
