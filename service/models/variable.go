/*
 * @module service/models/variable
 * @description 系统动力学模型图相关模型定义，包括模型、变量、变量连接等核心实体
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/model.md
 * @stateFlow 模型图生命周期管理
 * @rules 遵循数据库设计规范，确保数据完整性和一致性
 * @dependencies gorm.io/gorm
 * @refs dev_docs/requirements.md
 */

package models

// 变量类型常量
const (
	VariableKindStock             = "stock"              // 存量
	VariableKindFlow              = "flow"               // 流量
	VariableKindVariable          = "variable"           // 转换变量(即时计算)
	VariableKindInput             = "input"              // 外部输入(实测/预测数据)
	VariableKindSeasonalInput     = "seasonal_input"     // 季节性输入(按年周期)
	VariableKindConstant          = "constant"           // 常量
	VariableKindHouseholdConstant = "household_constant" // 家庭基线常量(按地理范围)
	VariableKindScenarioConstant  = "scenario_constant"  // 情景常量
	VariableKindPulseInput        = "pulse_input"        // 脉冲输入(响应方案时间窗)
)

// 聚合方式常量
const (
	AggregateByMean          = "MEAN"     // 区间平均值
	AggregateBySum           = "SUM"      // 区间累计值(按步长和单位换算)
	AggregateByChange        = "CHANGE"   // 末值减初值
	AggregateByChangePercent = "%CHANGE"  // 变化百分比
)

// SamraModel 系统动力学模型
type SamraModel struct {
	ID          int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string     `json:"name" gorm:"not null;unique;size:255" example:"mali_household_economy"`
	Description string     `json:"description" gorm:"size:1000"`
	Variables   []Variable `json:"variables,omitempty" gorm:"foreignKey:ModelID"`
}

// Variable 模型变量，模型图中的节点
// Kind 决定编译行为：存量按净流量积分，流量/转换变量按方程即时求值，
// 输入类按外部数据点构建查找表，常量类按情景/响应方案分层解析
type Variable struct {
	ID                   int      `json:"id" gorm:"primaryKey;autoIncrement"`
	ModelID              int      `json:"model_id" gorm:"not null;index"`
	Name                 string   `json:"name" gorm:"not null;size:255" example:"cereal_stock"`
	Kind                 string   `json:"kind" gorm:"not null;size:30;index" example:"stock"`
	Equation             *string  `json:"equation" gorm:"type:text"` // 占位符语法 _E<id>_
	Unit                 string   `json:"unit" gorm:"size:50" example:"kg / mois"`
	ConstantDefaultValue *float64 `json:"constant_default_value"`
	// 存量初值引用：指向一个常量类型变量，其解析值作为存量初值
	StockInitialValueID *int `json:"stock_initial_value_id" gorm:"index"`
	// 流量的汇/源存量：InflowStockID 为流入目标，OutflowStockID 为流出来源，可同时设置
	InflowStockID  *int   `json:"inflow_stock_id" gorm:"index"`
	OutflowStockID *int   `json:"outflow_stock_id" gorm:"index"`
	ModelOutput    bool   `json:"model_output" gorm:"not null;default:false"` // 是否纳入结果集
	AggregateBy    string `json:"aggregate_by" gorm:"size:20;default:'MEAN'"`

	// 关联关系
	Model SamraModel `json:"model,omitempty" gorm:"foreignKey:ModelID"`
}

// HasEquation 判断变量是否带有非空方程
func (v *Variable) HasEquation() bool {
	return v.Equation != nil && *v.Equation != ""
}

// VariableConnection 变量连接，记录方程依赖关系的有向边
// 仅用于依赖可视化和校验，求解器从方程文本解析依赖，不直接消费连接表
type VariableConnection struct {
	ID             int `json:"id" gorm:"primaryKey;autoIncrement"`
	FromVariableID int `json:"from_variable_id" gorm:"not null;uniqueIndex:idx_connection_pair"`
	ToVariableID   int `json:"to_variable_id" gorm:"not null;uniqueIndex:idx_connection_pair"`

	FromVariable Variable `json:"from_variable,omitempty" gorm:"foreignKey:FromVariableID"`
	ToVariable   Variable `json:"to_variable,omitempty" gorm:"foreignKey:ToVariableID"`
}
