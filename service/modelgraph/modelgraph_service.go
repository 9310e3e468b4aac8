/*
 * @module service/modelgraph/modelgraph_service
 * @description 模型图管理服务：模型、变量、变量连接与情景/响应方案的增删改查
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/model.md
 * @stateFlow 请求接收 -> 业务校验 -> 数据库操作 -> 响应返回
 * @rules 变量连接按有序对唯一；删除变量时级联清理其连接和常量取值
 * @dependencies gorm.io/gorm
 * @refs service/models
 */

package modelgraph

import (
	"errors"
	"fmt"

	"samra-service/service/models"

	"gorm.io/gorm"
)

// Service 模型图管理服务
type Service struct {
	db *gorm.DB
}

// NewService 创建模型图管理服务实例
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateModel 创建模型
func (s *Service) CreateModel(model *models.SamraModel) error {
	return s.db.Create(model).Error
}

// ListModels 获取模型列表
func (s *Service) ListModels() ([]models.SamraModel, error) {
	var list []models.SamraModel
	err := s.db.Order("id").Find(&list).Error
	return list, err
}

// GetModel 获取模型及其全部变量
func (s *Service) GetModel(id int) (*models.SamraModel, error) {
	var model models.SamraModel
	err := s.db.Preload("Variables").First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("模型 %d 不存在", id)
	}
	return &model, err
}

// CreateVariable 创建变量
func (s *Service) CreateVariable(variable *models.Variable) error {
	if err := s.validateVariable(variable); err != nil {
		return err
	}
	return s.db.Create(variable).Error
}

// UpdateVariable 更新变量
func (s *Service) UpdateVariable(variable *models.Variable) error {
	if err := s.validateVariable(variable); err != nil {
		return err
	}
	return s.db.Save(variable).Error
}

// DeleteVariable 删除变量，级联清理连接和常量取值层记录
func (s *Service) DeleteVariable(id int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("from_variable_id = ? OR to_variable_id = ?", id, id).
			Delete(&models.VariableConnection{}).Error; err != nil {
			return err
		}
		for _, layer := range []interface{}{
			&models.HouseholdConstantValue{},
			&models.ScenarioConstantValue{},
			&models.ResponseConstantValue{},
			&models.PulseValue{},
		} {
			if err := tx.Where("variable_id = ?", id).Delete(layer).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Variable{}, id).Error
	})
}

// ListVariables 获取模型的变量列表
func (s *Service) ListVariables(modelID int) ([]models.Variable, error) {
	var list []models.Variable
	err := s.db.Where("model_id = ?", modelID).Order("id").Find(&list).Error
	return list, err
}

// validateVariable 校验变量类型与方程约束
func (s *Service) validateVariable(v *models.Variable) error {
	valid := map[string]bool{
		models.VariableKindStock:             true,
		models.VariableKindFlow:              true,
		models.VariableKindVariable:          true,
		models.VariableKindInput:             true,
		models.VariableKindSeasonalInput:     true,
		models.VariableKindConstant:          true,
		models.VariableKindHouseholdConstant: true,
		models.VariableKindScenarioConstant:  true,
		models.VariableKindPulseInput:        true,
	}
	if !valid[v.Kind] {
		return fmt.Errorf("未知变量类型 %q", v.Kind)
	}
	if v.Kind == models.VariableKindVariable && !v.HasEquation() {
		return fmt.Errorf("转换变量必须带有方程")
	}
	return nil
}

// CreateConnection 创建变量连接，同一有序对至多一条
func (s *Service) CreateConnection(conn *models.VariableConnection) error {
	if conn.FromVariableID == conn.ToVariableID {
		return fmt.Errorf("变量不能连接到自身")
	}
	var existing models.VariableConnection
	err := s.db.Where("from_variable_id = ? AND to_variable_id = ?",
		conn.FromVariableID, conn.ToVariableID).First(&existing).Error
	if err == nil {
		return fmt.Errorf("连接 %d -> %d 已存在", conn.FromVariableID, conn.ToVariableID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(conn).Error
}

// DeleteConnection 删除变量连接
func (s *Service) DeleteConnection(id int) error {
	return s.db.Delete(&models.VariableConnection{}, id).Error
}

// ListConnections 获取模型变量间的连接列表
func (s *Service) ListConnections(modelID int) ([]models.VariableConnection, error) {
	var list []models.VariableConnection
	err := s.db.
		Joins("JOIN variables ON variables.id = variable_connections.from_variable_id").
		Where("variables.model_id = ?", modelID).
		Find(&list).Error
	return list, err
}

// CreateScenario 创建情景
func (s *Service) CreateScenario(scenario *models.Scenario) error {
	return s.db.Create(scenario).Error
}

// ListScenarios 获取情景列表
func (s *Service) ListScenarios() ([]models.Scenario, error) {
	var list []models.Scenario
	err := s.db.Order("id").Find(&list).Error
	return list, err
}

// CreateResponseOption 创建响应方案
func (s *Service) CreateResponseOption(option *models.ResponseOption) error {
	return s.db.Create(option).Error
}

// ListResponseOptions 获取响应方案列表
func (s *Service) ListResponseOptions() ([]models.ResponseOption, error) {
	var list []models.ResponseOption
	err := s.db.Order("id").Find(&list).Error
	return list, err
}

// CreateSource 创建数据来源
func (s *Service) CreateSource(source *models.Source) error {
	return s.db.Create(source).Error
}

// ListSources 获取数据来源列表
func (s *Service) ListSources() ([]models.Source, error) {
	var list []models.Source
	err := s.db.Order("id").Find(&list).Error
	return list, err
}
