/*
 * @module service/simulation/aggregate_service
 * @description 聚合读取操作：供报表面板消费的时间序列与区间标量，含成本效益派生指标
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 读取持久化周桶序列 -> 按(情景,响应方案)分组 -> 区间标量 -> 成本效益对比
 * @rules 成本效益相对基线响应方案(配置项,约定 id 为 1)计算，缩放因子按单位配置
 * @dependencies gorm.io/gorm
 * @refs simulation_service.go, service/engine/aggregator.go
 */

package simulation

import (
	"context"
	"fmt"
	"sort"

	"samra-service/service/engine"
	"samra-service/service/models"
)

// 持久化结果为周桶序列，区间标量聚合按 7 天步长计算
const persistedStepDays = 7

// AggregateRequest 聚合读取请求
type AggregateRequest struct {
	VariableID        int                   `json:"variable_id"`
	ScenarioIDs       []int                 `json:"scenario_ids"`
	ResponseOptionIDs []int                 `json:"response_option_ids"`
	Geography         engine.GeographyScope `json:"geography"`
	Mode              string                `json:"mode"`             // 为空时使用变量自身的聚合方式
	CostVariableID    *int                  `json:"cost_variable_id"` // 指定时计算成本效益
}

// TripleSeries 一个(情景,响应方案)组合的序列与标量
type TripleSeries struct {
	ScenarioID        int                      `json:"scenario_id"`
	ResponseOptionID  int                      `json:"response_option_id"`
	Points            []engine.AggregatedPoint `json:"points"`
	Scalar            float64                  `json:"scalar"`
	CostEffectiveness *float64                 `json:"cost_effectiveness,omitempty"`
}

// AggregateResult 聚合读取结果
type AggregateResult struct {
	VariableID int            `json:"variable_id"`
	Unit       string         `json:"unit"`
	Mode       string         `json:"mode"`
	Series     []TripleSeries `json:"series"`
}

// Aggregate 读取并聚合模拟结果序列
func (s *Service) Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResult, error) {
	var variable models.Variable
	if err := s.db.First(&variable, req.VariableID).Error; err != nil {
		return nil, fmt.Errorf("变量 %d 不存在: %w", req.VariableID, err)
	}

	mode := req.Mode
	if mode == "" {
		mode = variable.AggregateBy
	}

	values, err := s.loadSeries(req.VariableID, req)
	if err != nil {
		return nil, err
	}

	result := &AggregateResult{VariableID: req.VariableID, Unit: variable.Unit, Mode: mode}
	for _, scenarioID := range req.ScenarioIDs {
		for _, responseID := range req.ResponseOptionIDs {
			points := values[tripleKey{scenarioID, responseID}]
			ts := TripleSeries{ScenarioID: scenarioID, ResponseOptionID: responseID, Points: points}
			if len(points) > 0 {
				scalar, err := s.aggregator.Scalar(pointValues(points), mode, variable.Unit, persistedStepDays)
				if err != nil {
					return nil, err
				}
				ts.Scalar = scalar
			}
			result.Series = append(result.Series, ts)
		}
	}

	if req.CostVariableID != nil {
		if err := s.attachCostEffectiveness(result, req, variable); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type tripleKey struct {
	scenarioID int
	responseID int
}

// loadSeries 按(情景,响应方案)分组加载持久化序列
func (s *Service) loadSeries(variableID int, req AggregateRequest) (map[tripleKey][]engine.AggregatedPoint, error) {
	var rows []models.SimulatedDataPoint
	err := s.db.
		Where("variable_id = ? AND scenario_id IN ? AND response_option_id IN ?",
			variableID, req.ScenarioIDs, req.ResponseOptionIDs).
		Where("country = ? AND region = ? AND locality = ?",
			req.Geography.Country, req.Geography.Region, req.Geography.Locality).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("模拟结果查询失败: %w", err)
	}

	grouped := make(map[tripleKey][]engine.AggregatedPoint)
	for _, row := range rows {
		key := tripleKey{row.ScenarioID, row.ResponseOptionID}
		grouped[key] = append(grouped[key], engine.AggregatedPoint{Date: row.Date, Value: row.Value})
	}
	for _, points := range grouped {
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	}
	return grouped, nil
}

// attachCostEffectiveness 为非基线响应方案计算相对基线的成本效益
func (s *Service) attachCostEffectiveness(result *AggregateResult, req AggregateRequest, variable models.Variable) error {
	var costVariable models.Variable
	if err := s.db.First(&costVariable, *req.CostVariableID).Error; err != nil {
		return fmt.Errorf("成本变量 %d 不存在: %w", *req.CostVariableID, err)
	}

	costReq := req
	costReq.ResponseOptionIDs = appendUnique(req.ResponseOptionIDs, s.cfg.BaselineResponseID)
	costSeries, err := s.loadSeries(*req.CostVariableID, costReq)
	if err != nil {
		return err
	}
	valueReq := req
	valueReq.ResponseOptionIDs = costReq.ResponseOptionIDs
	valueSeries, err := s.loadSeries(req.VariableID, valueReq)
	if err != nil {
		return err
	}

	scalar := func(series map[tripleKey][]engine.AggregatedPoint, key tripleKey, mode, unit string) (float64, bool) {
		points := series[key]
		if len(points) == 0 {
			return 0, false
		}
		v, err := s.aggregator.Scalar(pointValues(points), mode, unit, persistedStepDays)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	for i := range result.Series {
		ts := &result.Series[i]
		if ts.ResponseOptionID == s.cfg.BaselineResponseID {
			continue
		}
		baseKey := tripleKey{ts.ScenarioID, s.cfg.BaselineResponseID}
		key := tripleKey{ts.ScenarioID, ts.ResponseOptionID}

		value, ok1 := scalar(valueSeries, key, result.Mode, variable.Unit)
		baseValue, ok2 := scalar(valueSeries, baseKey, result.Mode, variable.Unit)
		cost, ok3 := scalar(costSeries, key, models.AggregateBySum, costVariable.Unit)
		baseCost, ok4 := scalar(costSeries, baseKey, models.AggregateBySum, costVariable.Unit)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue
		}

		ce, err := s.aggregator.CostEffectiveness(value, baseValue, cost, baseCost, variable.Unit)
		if err != nil {
			continue // 成本差为零时跳过该组合，不视为失败
		}
		ts.CostEffectiveness = &ce
	}
	return nil
}

func pointValues(points []engine.AggregatedPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

func appendUnique(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	out := make([]int, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}
