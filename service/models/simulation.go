/*
 * @module service/models/simulation
 * @description 模拟运行记录与定时运行配置模型定义
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/model.md
 * @stateFlow 运行创建 -> 执行 -> 成功/失败，诊断信息随行持久化供界面展示
 * @rules 运行记录按(情景,响应方案,地理范围)粒度记录结果和编译警告
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/simulation/simulation_service.go, service/scheduler/scheduler_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 模拟运行状态常量
const (
	SimulationRunStatusPending = "pending"
	SimulationRunStatusRunning = "running"
	SimulationRunStatusSuccess = "success"
	SimulationRunStatusFailed  = "failed"
)

// SimulationRun 一次(情景,响应方案,地理范围)组合的模拟运行记录
type SimulationRun struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ModelID          int        `json:"model_id" gorm:"not null;index"`
	ScenarioID       int        `json:"scenario_id" gorm:"not null;index"`
	ResponseOptionID int        `json:"response_option_id" gorm:"not null;index"`
	Country          string     `json:"country" gorm:"size:100"`
	Region           string     `json:"region" gorm:"size:100"`
	Locality         string     `json:"locality" gorm:"size:100"`
	StartDate        time.Time  `json:"start_date" gorm:"not null"`
	EndDate          time.Time  `json:"end_date" gorm:"not null"`
	StepDays         float64    `json:"step_days" gorm:"not null;default:1"`
	Status           string     `json:"status" gorm:"not null;default:'pending';size:20"`
	ErrorMessage     string     `json:"error_message" gorm:"size:2000"`
	Diagnostics      JSONBArray `json:"diagnostics" gorm:"type:jsonb"` // 编译/绑定阶段警告列表
	CreatedAt        time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	FinishedAt       *time.Time `json:"finished_at"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (r *SimulationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// SimulationRunConfig 保存的运行配置，供定时调度器周期性重算
type SimulationRunConfig struct {
	ID                string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name              string           `json:"name" gorm:"not null;size:255"`
	ModelID           int              `json:"model_id" gorm:"not null"`
	ScenarioIDs       JSONBGenericArray `json:"scenario_ids" gorm:"type:jsonb;not null"`
	ResponseOptionIDs JSONBGenericArray `json:"response_option_ids" gorm:"type:jsonb;not null"`
	Country           string           `json:"country" gorm:"size:100"`
	Region            string           `json:"region" gorm:"size:100"`
	Locality          string           `json:"locality" gorm:"size:100"`
	HorizonDays       int              `json:"horizon_days" gorm:"not null;default:365"` // 从当天起算的模拟区间长度
	StepDays          float64          `json:"step_days" gorm:"not null;default:1"`
	CronExpression    string           `json:"cron_expression" gorm:"size:100"` // 为空时使用全局默认调度
	// 指针类型保证显式传入false时不被default吞掉
	IsEnabled         *bool            `json:"is_enabled" gorm:"not null;default:true"`
	CreatedAt         time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time        `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (c *SimulationRunConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
