/*
 * @module service/models/datapoint
 * @description 时间序列数据点模型定义，包括实测、季节性、预测输入数据和模拟结果数据
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/model.md
 * @stateFlow 输入数据按(来源,地理范围)整体替换；模拟结果按(情景,响应方案,地理范围)整体替换
 * @rules 数据刷新采用先删后插语义，禁止增量更新，保证读取方不可见部分状态
 * @dependencies gorm.io/gorm
 * @refs service/simulation/simulation_service.go
 */

package models

import "time"

// Source 外部统计数据来源
type Source struct {
	ID   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"not null;unique;size:255" example:"FEWS NET"`
	URL  string `json:"url" gorm:"size:500"`
}

// MeasuredDataPoint 实测数据点，输入变量查找表的历史段
type MeasuredDataPoint struct {
	ID         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	VariableID int       `json:"variable_id" gorm:"not null;index:idx_measured_lookup"`
	Date       time.Time `json:"date" gorm:"not null;index:idx_measured_lookup"`
	Value      float64   `json:"value" gorm:"not null"`
	Country    string    `json:"country" gorm:"size:100;index"`
	Region     string    `json:"region" gorm:"size:100;index"`
	Locality   string    `json:"locality" gorm:"size:100;index"`
	SourceID   *int      `json:"source_id" gorm:"index"`

	Variable Variable `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
	Source   *Source  `json:"source,omitempty" gorm:"foreignKey:SourceID"`
}

// SeasonalInputDataPoint 季节性输入数据点，按年内日序循环取值
type SeasonalInputDataPoint struct {
	ID         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	VariableID int       `json:"variable_id" gorm:"not null;index"`
	Date       time.Time `json:"date" gorm:"not null"`
	Value      float64   `json:"value" gorm:"not null"`
	Country    string    `json:"country" gorm:"size:100;index"`
	Region     string    `json:"region" gorm:"size:100;index"`
	Locality   string    `json:"locality" gorm:"size:100;index"`

	Variable Variable `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
}

// ForecastedDataPoint 预测数据点，由外部预测模块产出，输入变量查找表的未来段
type ForecastedDataPoint struct {
	ID         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	VariableID int       `json:"variable_id" gorm:"not null;index:idx_forecasted_lookup"`
	Date       time.Time `json:"date" gorm:"not null;index:idx_forecasted_lookup"`
	Value      float64   `json:"value" gorm:"not null"`
	Country    string    `json:"country" gorm:"size:100;index"`
	Region     string    `json:"region" gorm:"size:100;index"`
	Locality   string    `json:"locality" gorm:"size:100;index"`

	Variable Variable `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
}

// SimulatedDataPoint 模拟结果数据点，仅由模拟运行器产出
// 每行对应(变量,日期桶,情景,响应方案,地理范围)，同键重算时整体先删后插
type SimulatedDataPoint struct {
	ID               int       `json:"id" gorm:"primaryKey;autoIncrement"`
	VariableID       int       `json:"variable_id" gorm:"not null;index:idx_simulated_key"`
	Date             time.Time `json:"date" gorm:"not null"`
	Value            float64   `json:"value" gorm:"not null"`
	ScenarioID       int       `json:"scenario_id" gorm:"not null;index:idx_simulated_key"`
	ResponseOptionID int       `json:"response_option_id" gorm:"not null;index:idx_simulated_key"`
	Country          string    `json:"country" gorm:"size:100;index"`
	Region           string    `json:"region" gorm:"size:100;index"`
	Locality         string    `json:"locality" gorm:"size:100;index"`

	Variable       Variable       `json:"variable,omitempty" gorm:"foreignKey:VariableID"`
	Scenario       Scenario       `json:"scenario,omitempty" gorm:"foreignKey:ScenarioID"`
	ResponseOption ResponseOption `json:"response_option,omitempty" gorm:"foreignKey:ResponseOptionID"`
}
