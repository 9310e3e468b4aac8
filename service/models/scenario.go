/*
 * @module service/models/scenario
 * @description 情景与响应方案模型定义，以及四类常量取值层
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/model.md
 * @stateFlow 常量解析优先级：家庭基线 -> 情景 -> 响应方案，脉冲独立求值
 * @rules 每个常量变量在一个(情景,响应方案,地理范围)组合下必须可解析出唯一标量
 * @dependencies gorm.io/gorm
 * @refs service/engine/binder.go
 */

package models

import "time"

// Scenario 情景，外部条件集合，提供情景层常量覆盖
type Scenario struct {
	ID          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"not null;unique;size:255" example:"drought_2024"`
	Description string `json:"description" gorm:"size:1000"`
}

// ResponseOption 响应方案，政策干预集合，提供响应层常量覆盖和脉冲
// ID 为 1 的记录约定为基线方案(无干预)，用于成本效益对比
type ResponseOption struct {
	ID          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"not null;unique;size:255" example:"cash_transfer"`
	Description string `json:"description" gorm:"size:1000"`
}

// HouseholdConstantValue 家庭基线常量值，仅按地理范围限定
type HouseholdConstantValue struct {
	ID         int     `json:"id" gorm:"primaryKey;autoIncrement"`
	VariableID int     `json:"variable_id" gorm:"not null;index"`
	Value      float64 `json:"value" gorm:"not null"`
	Country    string  `json:"country" gorm:"size:100;index"`
	Region     string  `json:"region" gorm:"size:100;index"`
	Locality   string  `json:"locality" gorm:"size:100;index"`

	Variable Variable `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
}

// ScenarioConstantValue 情景常量值，按情景限定
type ScenarioConstantValue struct {
	ID         int     `json:"id" gorm:"primaryKey;autoIncrement"`
	ScenarioID int     `json:"scenario_id" gorm:"not null;index"`
	VariableID int     `json:"variable_id" gorm:"not null;index"`
	Value      float64 `json:"value" gorm:"not null"`

	Scenario Scenario `json:"scenario,omitempty" gorm:"foreignKey:ScenarioID"`
	Variable Variable `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
}

// ResponseConstantValue 响应方案常量值，按响应方案和地理范围限定
type ResponseConstantValue struct {
	ID               int     `json:"id" gorm:"primaryKey;autoIncrement"`
	ResponseOptionID int     `json:"response_option_id" gorm:"not null;index"`
	VariableID       int     `json:"variable_id" gorm:"not null;index"`
	Value            float64 `json:"value" gorm:"not null"`
	Country          string  `json:"country" gorm:"size:100;index"`
	Region           string  `json:"region" gorm:"size:100;index"`
	Locality         string  `json:"locality" gorm:"size:100;index"`

	ResponseOption ResponseOption `json:"response_option,omitempty" gorm:"foreignKey:ResponseOptionID"`
	Variable       Variable       `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
}

// PulseValue 脉冲值，按响应方案、地理范围和时间窗限定
// 不参与分层常量解析，始终作为时间函数求值：在 StartDate 前后各 15 天的矩形窗口内
// 贡献 Value，窗口外为 0；EndDate 由管理界面维护，求值时不解释
type PulseValue struct {
	ID               int        `json:"id" gorm:"primaryKey;autoIncrement"`
	ResponseOptionID int        `json:"response_option_id" gorm:"not null;index"`
	VariableID       int        `json:"variable_id" gorm:"not null;index"`
	Value            float64    `json:"value" gorm:"not null"`
	StartDate        time.Time  `json:"start_date" gorm:"not null"`
	EndDate          *time.Time `json:"end_date"`
	Country          string     `json:"country" gorm:"size:100;index"`
	Region           string     `json:"region" gorm:"size:100;index"`
	Locality         string     `json:"locality" gorm:"size:100;index"`

	ResponseOption ResponseOption `json:"response_option,omitempty" gorm:"foreignKey:ResponseOptionID"`
	Variable       Variable       `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
}
