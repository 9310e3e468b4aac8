/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新数据库表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference dev_docs/model.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致
 * @dependencies samra-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"

	"samra-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	// 模型图相关表
	err := db.AutoMigrate(
		&models.SamraModel{},
		&models.Variable{},
		&models.VariableConnection{},
	)
	if err != nil {
		return err
	}

	// 情景/响应方案与常量取值层相关表
	err = db.AutoMigrate(
		&models.Scenario{},
		&models.ResponseOption{},
		&models.HouseholdConstantValue{},
		&models.ScenarioConstantValue{},
		&models.ResponseConstantValue{},
		&models.PulseValue{},
	)
	if err != nil {
		return err
	}

	// 数据点相关表
	err = db.AutoMigrate(
		&models.Source{},
		&models.MeasuredDataPoint{},
		&models.SeasonalInputDataPoint{},
		&models.ForecastedDataPoint{},
		&models.SimulatedDataPoint{},
	)
	if err != nil {
		return err
	}

	// 模拟运行相关表
	err = db.AutoMigrate(
		&models.SimulationRun{},
		&models.SimulationRunConfig{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}

// InitializeData 初始化基础数据
func InitializeData(db *gorm.DB) error {
	log.Println("开始初始化基础数据...")

	// 基线响应方案，id 约定为 1，成本效益对比的参照
	baseline := models.ResponseOption{
		ID:          1,
		Name:        "baseline",
		Description: "无干预基线方案",
	}
	if err := db.FirstOrCreate(&baseline, models.ResponseOption{ID: 1}).Error; err != nil {
		return err
	}

	// 默认情景
	defaultScenario := models.Scenario{
		ID:          1,
		Name:        "base_conditions",
		Description: "默认外部条件情景",
	}
	if err := db.FirstOrCreate(&defaultScenario, models.Scenario{ID: 1}).Error; err != nil {
		return err
	}

	log.Println("基础数据初始化完成")
	return nil
}
