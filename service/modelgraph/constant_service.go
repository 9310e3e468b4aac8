/*
 * @module service/modelgraph/constant_service
 * @description 常量取值层管理：家庭基线、情景、响应方案常量与脉冲值的维护
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/model.md
 * @stateFlow 请求接收 -> 校验目标变量类型 -> 数据库操作
 * @rules 常量取值只允许挂在常量类变量上，脉冲值只允许挂在脉冲输入变量上
 * @dependencies gorm.io/gorm
 * @refs service/engine/binder.go
 */

package modelgraph

import (
	"fmt"

	"samra-service/service/models"
)

// SetHouseholdValue 写入家庭基线常量值
func (s *Service) SetHouseholdValue(value *models.HouseholdConstantValue) error {
	if err := s.requireConstantKind(value.VariableID); err != nil {
		return err
	}
	return s.db.Create(value).Error
}

// SetScenarioValue 写入情景常量值
func (s *Service) SetScenarioValue(value *models.ScenarioConstantValue) error {
	if err := s.requireConstantKind(value.VariableID); err != nil {
		return err
	}
	return s.db.Create(value).Error
}

// SetResponseValue 写入响应方案常量值
func (s *Service) SetResponseValue(value *models.ResponseConstantValue) error {
	if err := s.requireConstantKind(value.VariableID); err != nil {
		return err
	}
	return s.db.Create(value).Error
}

// SetPulseValue 写入脉冲值
func (s *Service) SetPulseValue(value *models.PulseValue) error {
	var variable models.Variable
	if err := s.db.First(&variable, value.VariableID).Error; err != nil {
		return fmt.Errorf("变量 %d 不存在: %w", value.VariableID, err)
	}
	if variable.Kind != models.VariableKindPulseInput {
		return fmt.Errorf("变量 %d 不是脉冲输入类型", value.VariableID)
	}
	return s.db.Create(value).Error
}

// ListConstantValues 获取一个变量在各取值层的全部记录
func (s *Service) ListConstantValues(variableID int) (map[string]interface{}, error) {
	var household []models.HouseholdConstantValue
	var scenario []models.ScenarioConstantValue
	var response []models.ResponseConstantValue
	var pulses []models.PulseValue

	queries := []error{
		s.db.Where("variable_id = ?", variableID).Find(&household).Error,
		s.db.Where("variable_id = ?", variableID).Find(&scenario).Error,
		s.db.Where("variable_id = ?", variableID).Find(&response).Error,
		s.db.Where("variable_id = ?", variableID).Find(&pulses).Error,
	}
	for _, err := range queries {
		if err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"household": household,
		"scenario":  scenario,
		"response":  response,
		"pulse":     pulses,
	}, nil
}

// requireConstantKind 校验目标变量为常量类
func (s *Service) requireConstantKind(variableID int) error {
	var variable models.Variable
	if err := s.db.First(&variable, variableID).Error; err != nil {
		return fmt.Errorf("变量 %d 不存在: %w", variableID, err)
	}
	switch variable.Kind {
	case models.VariableKindConstant,
		models.VariableKindHouseholdConstant,
		models.VariableKindScenarioConstant:
		return nil
	}
	return fmt.Errorf("变量 %d 不是常量类类型，不能设置常量取值", variableID)
}
