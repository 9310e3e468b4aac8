/*
 * @module service/modelgraph/datapoint_service
 * @description 外部数据点管理：实测/季节性/预测数据按(来源,地理范围)批量替换
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/model.md
 * @stateFlow 数据刷新 -> 按范围删除旧数据 -> 批量插入新数据，单事务完成
 * @rules 数据刷新是先删后插的整体替换语义，禁止增量更新
 * @dependencies gorm.io/gorm
 * @refs service/engine/compiler.go
 */

package modelgraph

import (
	"samra-service/service/models"

	"gorm.io/gorm"
)

// ReplaceMeasuredPoints 批量替换一个(变量,来源,地理范围)的实测数据点
func (s *Service) ReplaceMeasuredPoints(variableID int, sourceID *int, country, region, locality string,
	points []models.MeasuredDataPoint) error {

	return s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("variable_id = ? AND country = ? AND region = ? AND locality = ?",
			variableID, country, region, locality)
		if sourceID != nil {
			q = q.Where("source_id = ?", *sourceID)
		}
		if err := q.Delete(&models.MeasuredDataPoint{}).Error; err != nil {
			return err
		}
		if len(points) == 0 {
			return nil
		}
		for i := range points {
			points[i].ID = 0
			points[i].VariableID = variableID
			points[i].SourceID = sourceID
			points[i].Country = country
			points[i].Region = region
			points[i].Locality = locality
		}
		return tx.CreateInBatches(points, 500).Error
	})
}

// ReplaceSeasonalPoints 批量替换一个(变量,地理范围)的季节性数据点
func (s *Service) ReplaceSeasonalPoints(variableID int, country, region, locality string,
	points []models.SeasonalInputDataPoint) error {

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("variable_id = ? AND country = ? AND region = ? AND locality = ?",
			variableID, country, region, locality).
			Delete(&models.SeasonalInputDataPoint{}).Error; err != nil {
			return err
		}
		if len(points) == 0 {
			return nil
		}
		for i := range points {
			points[i].ID = 0
			points[i].VariableID = variableID
			points[i].Country = country
			points[i].Region = region
			points[i].Locality = locality
		}
		return tx.CreateInBatches(points, 500).Error
	})
}

// ReplaceForecastedPoints 批量替换一个(变量,地理范围)的预测数据点
// 预测数据由外部预测模块产出，本服务只做存取
func (s *Service) ReplaceForecastedPoints(variableID int, country, region, locality string,
	points []models.ForecastedDataPoint) error {

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("variable_id = ? AND country = ? AND region = ? AND locality = ?",
			variableID, country, region, locality).
			Delete(&models.ForecastedDataPoint{}).Error; err != nil {
			return err
		}
		if len(points) == 0 {
			return nil
		}
		for i := range points {
			points[i].ID = 0
			points[i].VariableID = variableID
			points[i].Country = country
			points[i].Region = region
			points[i].Locality = locality
		}
		return tx.CreateInBatches(points, 500).Error
	})
}
