/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, time
 * @refs service/models
 */

package testutil

import (
	"fmt"
	"time"

	"samra-service/service/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.SamraModel{},
		&models.Variable{},
		&models.VariableConnection{},
		&models.Scenario{},
		&models.ResponseOption{},
		&models.HouseholdConstantValue{},
		&models.ScenarioConstantValue{},
		&models.ResponseConstantValue{},
		&models.PulseValue{},
		&models.Source{},
		&models.MeasuredDataPoint{},
		&models.SeasonalInputDataPoint{},
		&models.ForecastedDataPoint{},
		&models.SimulatedDataPoint{},
		&models.SimulationRun{},
		&models.SimulationRunConfig{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"simulated_data_points",
		"simulation_runs",
		"simulation_run_configs",
		"measured_data_points",
		"seasonal_input_data_points",
		"forecasted_data_points",
		"household_constant_values",
		"scenario_constant_values",
		"response_constant_values",
		"pulse_values",
		"variable_connections",
		"variables",
		"samra_models",
		"scenarios",
		"response_options",
		"sources",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// ModelOption 模型选项函数类型
type ModelOption func(*models.SamraModel)

// CreateModel 创建测试模型
func (f *TestDataFactory) CreateModel(opts ...ModelOption) *models.SamraModel {
	model := &models.SamraModel{
		Name:        "测试模型",
		Description: "这是一个测试模型",
	}

	// 应用选项
	for _, opt := range opts {
		opt(model)
	}

	if err := f.DB.Create(model).Error; err != nil {
		panic(fmt.Sprintf("failed to create test model: %v", err))
	}
	return model
}

// VariableOption 变量选项函数类型
type VariableOption func(*models.Variable)

// WithKind 设置变量类型
func WithKind(kind string) VariableOption {
	return func(v *models.Variable) { v.Kind = kind }
}

// WithEquation 设置变量方程
func WithEquation(eq string) VariableOption {
	return func(v *models.Variable) { v.Equation = &eq }
}

// WithUnit 设置变量单位
func WithUnit(unit string) VariableOption {
	return func(v *models.Variable) { v.Unit = unit }
}

// WithOutput 标记为模型输出
func WithOutput() VariableOption {
	return func(v *models.Variable) { v.ModelOutput = true }
}

// WithStockLinks 设置流量的存量连接
func WithStockLinks(inflow, outflow *int) VariableOption {
	return func(v *models.Variable) {
		v.InflowStockID = inflow
		v.OutflowStockID = outflow
	}
}

// WithInitialRef 设置存量初值引用
func WithInitialRef(refID int) VariableOption {
	return func(v *models.Variable) { v.StockInitialValueID = &refID }
}

// WithDefault 设置常量默认值
func WithDefault(value float64) VariableOption {
	return func(v *models.Variable) { v.ConstantDefaultValue = &value }
}

// CreateVariable 创建测试变量
func (f *TestDataFactory) CreateVariable(modelID int, name string, opts ...VariableOption) *models.Variable {
	variable := &models.Variable{
		ModelID:     modelID,
		Name:        name,
		Kind:        models.VariableKindVariable,
		AggregateBy: models.AggregateByMean,
	}

	// 应用选项
	for _, opt := range opts {
		opt(variable)
	}

	if err := f.DB.Create(variable).Error; err != nil {
		panic(fmt.Sprintf("failed to create test variable: %v", err))
	}
	return variable
}

// CreateScenario 创建测试情景
func (f *TestDataFactory) CreateScenario(name string) *models.Scenario {
	scenario := &models.Scenario{Name: name}
	if err := f.DB.Create(scenario).Error; err != nil {
		panic(fmt.Sprintf("failed to create test scenario: %v", err))
	}
	return scenario
}

// CreateResponseOption 创建测试响应方案
func (f *TestDataFactory) CreateResponseOption(name string) *models.ResponseOption {
	option := &models.ResponseOption{Name: name}
	if err := f.DB.Create(option).Error; err != nil {
		panic(fmt.Sprintf("failed to create test response option: %v", err))
	}
	return option
}

// CreateHouseholdValue 创建住户常量取值
func (f *TestDataFactory) CreateHouseholdValue(variableID int, country string, value float64) *models.HouseholdConstantValue {
	v := &models.HouseholdConstantValue{
		VariableID: variableID,
		Country:    country,
		Value:      value,
	}
	if err := f.DB.Create(v).Error; err != nil {
		panic(fmt.Sprintf("failed to create household value: %v", err))
	}
	return v
}

// CreateScenarioValue 创建情景常量取值
func (f *TestDataFactory) CreateScenarioValue(variableID, scenarioID int, value float64) *models.ScenarioConstantValue {
	v := &models.ScenarioConstantValue{
		VariableID: variableID,
		ScenarioID: scenarioID,
		Value:      value,
	}
	if err := f.DB.Create(v).Error; err != nil {
		panic(fmt.Sprintf("failed to create scenario value: %v", err))
	}
	return v
}

// CreateResponseValue 创建响应常量取值
func (f *TestDataFactory) CreateResponseValue(variableID, responseID int, country string, value float64) *models.ResponseConstantValue {
	v := &models.ResponseConstantValue{
		VariableID:       variableID,
		ResponseOptionID: responseID,
		Country:          country,
		Value:            value,
	}
	if err := f.DB.Create(v).Error; err != nil {
		panic(fmt.Sprintf("failed to create response value: %v", err))
	}
	return v
}

// CreatePulseValue 创建脉冲输入取值
func (f *TestDataFactory) CreatePulseValue(variableID, responseID int, start time.Time, value float64) *models.PulseValue {
	v := &models.PulseValue{
		VariableID:       variableID,
		ResponseOptionID: responseID,
		StartDate:        start,
		Value:            value,
	}
	if err := f.DB.Create(v).Error; err != nil {
		panic(fmt.Sprintf("failed to create pulse value: %v", err))
	}
	return v
}

// CreateMeasuredPoint 创建实测数据点
func (f *TestDataFactory) CreateMeasuredPoint(variableID int, date time.Time, value float64) *models.MeasuredDataPoint {
	p := &models.MeasuredDataPoint{
		VariableID: variableID,
		Date:       date,
		Value:      value,
	}
	if err := f.DB.Create(p).Error; err != nil {
		panic(fmt.Sprintf("failed to create measured point: %v", err))
	}
	return p
}

// Day 返回UTC当天零点之后偏移天数的日期，测试中统一用它构造日期
func Day(base time.Time, offset int) time.Time {
	return base.AddDate(0, 0, offset)
}

// BaseDate 测试统一使用的起始日期
func BaseDate() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}
