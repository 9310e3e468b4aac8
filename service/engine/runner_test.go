/*
 * @module service/engine/runner_test
 * @description 定步长显式欧拉模拟运行器测试
 * @architecture 测试层
 * @documentReference dev_docs/model.md
 * @stateFlow 编译 -> 绑定 -> 积分 -> 序列数值验证
 * @rules 覆盖欧拉推进规律、单位归一化、脉冲取值、smooth动态和致命错误路径
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs runner.go
 */

package engine

import (
	"testing"

	"samra-service/service/models"

	"github.com/stretchr/testify/assert"
)

func runStockFlow(t *testing.T, flowEquation, flowUnit string, days int) *ResultSet {
	snap := newSnapshot(stockFlowVariables(flowEquation, flowUnit)...)
	snap.HouseholdValues = []models.HouseholdConstantValue{
		{VariableID: 3, Value: 0},
	}
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	result, err := RunSimulation(bound, testDay(0), testDay(days), 1)
	assert.NoError(t, err)
	return result
}

// TestRunEulerLaw 测试常速流入下存量第N天为 速率xN
func TestRunEulerLaw(t *testing.T) {
	result := runStockFlow(t, "5", "1/jour", 10)

	series := result.Series[1]
	assert.Len(t, series, 11)
	for i, p := range series {
		assert.InDelta(t, 5.0*float64(i), p.Value, 1e-9, "第 %d 天", i)
	}
}

// TestRunPerMonthUnitNormalized 测试按月单位流量归一化为按日速率
func TestRunPerMonthUnitNormalized(t *testing.T) {
	result := runStockFlow(t, "5", "1/month", 10)

	series := result.Series[1]
	assert.InDelta(t, 5.0/DaysPerMonth*10, series[10].Value, 1e-9)
}

// TestRunFlowlessStockConstant 测试无流量存量保持初值
func TestRunFlowlessStockConstant(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "stock", Kind: models.VariableKindStock,
			StockInitialValueID: intp(2), ModelOutput: true},
		models.Variable{ID: 2, Name: "init", Kind: models.VariableKindConstant},
	)
	snap.HouseholdValues = []models.HouseholdConstantValue{{VariableID: 2, Value: 7}}
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	result, err := RunSimulation(bound, testDay(0), testDay(5), 1)
	assert.NoError(t, err)
	for _, p := range result.Series[1] {
		assert.Equal(t, 7.0, p.Value)
	}
}

// TestRunPulseWindow 测试脉冲输入仅在窗口内取值
func TestRunPulseWindow(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "aid_delivery", Kind: models.VariableKindPulseInput, ModelOutput: true},
	)
	snap.PulseValues = []models.PulseValue{
		{VariableID: 1, ResponseOptionID: 1, StartDate: testDay(50), Value: 100},
	}
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	result, err := RunSimulation(bound, testDay(0), testDay(100), 1)
	assert.NoError(t, err)

	series := result.Series[1]
	assert.Equal(t, 0.0, series[34].Value)
	assert.Equal(t, 100.0, series[35].Value)
	assert.Equal(t, 100.0, series[50].Value)
	assert.Equal(t, 100.0, series[65].Value)
	assert.Equal(t, 0.0, series[66].Value)
}

// TestRunSmoothApproachesInput 测试smooth辅助存量向输入收敛
func TestRunSmoothApproachesInput(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "smoothed_need", Kind: models.VariableKindVariable,
			Equation: strp("smooth(_E2_, 10)"), ModelOutput: true},
		models.Variable{ID: 2, Name: "need", Kind: models.VariableKindConstant},
	)
	snap.HouseholdValues = []models.HouseholdConstantValue{{VariableID: 2, Value: 40}}
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	result, err := RunSimulation(bound, testDay(0), testDay(30), 1)
	assert.NoError(t, err)

	// 辅助存量初值等于输入在起点的取值，常量输入下整条序列保持不变
	for _, p := range result.Series[1] {
		assert.InDelta(t, 40.0, p.Value, 1e-9)
	}
}

// TestRunLookupInput 测试输入变量按查找表插值参与方程
func TestRunLookupInput(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "scaled_rainfall", Kind: models.VariableKindVariable,
			Equation: strp("_E2_ * 2"), ModelOutput: true},
		models.Variable{ID: 2, Name: "rainfall", Kind: models.VariableKindInput},
	)
	snap.MeasuredPoints = []models.MeasuredDataPoint{
		{VariableID: 2, Date: testDay(0), Value: 10},
		{VariableID: 2, Date: testDay(10), Value: 20},
	}
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	result, err := RunSimulation(bound, testDay(0), testDay(10), 1)
	assert.NoError(t, err)

	series := result.Series[1]
	assert.InDelta(t, 20.0, series[0].Value, 1e-9)
	assert.InDelta(t, 30.0, series[5].Value, 1e-9)
	assert.InDelta(t, 40.0, series[10].Value, 1e-9)
}

// TestRunDivisionByZeroFatal 测试运行期算术错误中止整个三元组
func TestRunDivisionByZeroFatal(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "ratio", Kind: models.VariableKindVariable,
			Equation: strp("1 / _E2_"), ModelOutput: true},
		models.Variable{ID: 2, Name: "denominator", Kind: models.VariableKindConstant},
	)
	// 常量无取值记录默认0，触发除零
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	_, err := RunSimulation(bound, testDay(0), testDay(10), 1)
	assert.Error(t, err)
	var se *SimulationError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.VariableID)
}

// TestRunConverterCycleFatal 测试转换变量引用环被检测为致命错误
func TestRunConverterCycleFatal(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "a", Kind: models.VariableKindVariable,
			Equation: strp("_E2_ + 1"), ModelOutput: true},
		models.Variable{ID: 2, Name: "b", Kind: models.VariableKindVariable,
			Equation: strp("_E1_ + 1")},
	)
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	_, err := RunSimulation(bound, testDay(0), testDay(1), 1)
	assert.Error(t, err)
	var se *SimulationError
	assert.ErrorAs(t, err, &se)
}

// TestRunParameterValidation 测试步长和日期区间校验
func TestRunParameterValidation(t *testing.T) {
	snap := newSnapshot(stockFlowVariables("5", "1/jour")...)
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	_, err := RunSimulation(bound, testDay(0), testDay(10), 0)
	assert.Error(t, err)
	_, err = RunSimulation(bound, testDay(0), testDay(10), -1)
	assert.Error(t, err)
	_, err = RunSimulation(bound, testDay(10), testDay(0), 1)
	assert.Error(t, err)
}

// TestRunFractionalStep 测试非整日步长的序列长度
func TestRunFractionalStep(t *testing.T) {
	snap := newSnapshot(stockFlowVariables("4", "1/jour")...)
	snap.HouseholdValues = []models.HouseholdConstantValue{{VariableID: 3, Value: 0}}
	compiled := Compile(snap)
	bound := Bind(compiled, snap, 1, 1)

	result, err := RunSimulation(bound, testDay(0), testDay(1), 0.5)
	assert.NoError(t, err)

	series := result.Series[1]
	assert.Len(t, series, 3)
	assert.InDelta(t, 2.0, series[1].Value, 1e-9)
	assert.InDelta(t, 4.0, series[2].Value, 1e-9)
}
