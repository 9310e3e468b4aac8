/*
 * @module service/engine/compiler_test
 * @description 两阶段模型编译器测试，内存构造快照，不依赖数据库
 * @architecture 测试层
 * @documentReference dev_docs/model.md
 * @stateFlow 快照构造 -> 编译 -> 原语结构与诊断验证
 * @rules 覆盖原语选择规则、净流量装配、smooth展开、引用降级和可达性裁剪
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs compiler.go, compiled.go
 */

package engine

import (
	"testing"
	"time"

	"samra-service/service/equation"
	"samra-service/service/models"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string    { return &s }
func intp(i int) *int          { return &i }
func flp(v float64) *float64   { return &v }

func testDay(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// newSnapshot 构造测试快照，地理范围不过滤
func newSnapshot(variables ...models.Variable) *Snapshot {
	return &Snapshot{
		ModelID:   1,
		StartDate: testDay(0),
		EndDate:   testDay(100),
		Variables: variables,
	}
}

// stockFlowVariables 最小存量-流量模型：存量1(输出) <- 流量2(常速) ，初值引用常量3
func stockFlowVariables(flowEquation, flowUnit string) []models.Variable {
	return []models.Variable{
		{ID: 1, ModelID: 1, Name: "water_stock", Kind: models.VariableKindStock,
			StockInitialValueID: intp(3), ModelOutput: true},
		{ID: 2, ModelID: 1, Name: "inflow", Kind: models.VariableKindFlow,
			Equation: strp(flowEquation), Unit: flowUnit, InflowStockID: intp(1)},
		{ID: 3, ModelID: 1, Name: "initial_water", Kind: models.VariableKindConstant},
	}
}

// TestCompileStockFlow 测试最小存量-流量模型编译出完整原语集
func TestCompileStockFlow(t *testing.T) {
	compiled := Compile(newSnapshot(stockFlowVariables("5", "1/jour")...))

	assert.Len(t, compiled.Variables, 3)
	assert.Len(t, compiled.Stocks, 1)
	assert.Equal(t, []int{1}, compiled.OutputIDs)
	assert.Empty(t, compiled.Diagnostics)

	stock := compiled.Variables[1]
	assert.Equal(t, PrimStock, stock.Kind)
	assert.NotNil(t, stock.NetFlow)
	assert.Equal(t, 3, *stock.InitRefID)

	flow := compiled.Variables[2]
	assert.Equal(t, PrimFlow, flow.Kind)
	assert.NotNil(t, flow.Expr)

	assert.Equal(t, PrimConstant, compiled.Variables[3].Kind)
}

// TestCompileStockWithoutInitRef 测试缺少初值引用的存量产生编译告警
func TestCompileStockWithoutInitRef(t *testing.T) {
	vars := []models.Variable{
		{ID: 1, Name: "orphan_stock", Kind: models.VariableKindStock, ModelOutput: true},
	}
	compiled := Compile(newSnapshot(vars...))

	assert.Len(t, compiled.Diagnostics, 1)
	assert.Equal(t, StageCompile, compiled.Diagnostics[0].Stage)
	assert.Equal(t, 1, compiled.Diagnostics[0].VariableID)
	assert.Nil(t, compiled.Variables[1].InitRefID)
}

// TestCompileFlowWithoutEquationSkipped 测试无方程流量不生成原语
func TestCompileFlowWithoutEquationSkipped(t *testing.T) {
	vars := []models.Variable{
		{ID: 1, Name: "stock", Kind: models.VariableKindStock, ModelOutput: true},
		{ID: 2, Name: "empty_flow", Kind: models.VariableKindFlow, InflowStockID: intp(1)},
	}
	compiled := Compile(newSnapshot(vars...))

	assert.NotContains(t, compiled.Variables, 2)
	// net flow 退化为零方程
	v, err := equation.Eval(compiled.Variables[1].NetFlow, &nullEnv{})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

// TestCompileBadEquationDowngraded 测试方程解析失败降级为零方程而非中止编译
func TestCompileBadEquationDowngraded(t *testing.T) {
	compiled := Compile(newSnapshot(stockFlowVariables("5 +", "1/jour")...))

	assert.Len(t, compiled.Variables, 3)
	found := false
	for _, d := range compiled.Diagnostics {
		if d.VariableID == 2 && d.Stage == StageCompile {
			found = true
		}
	}
	assert.True(t, found, "解析失败应产生针对流量的编译告警")

	v, err := equation.Eval(compiled.Variables[2].Expr, &nullEnv{})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

// TestCompileOutflowSubtracted 测试流出项在净流量中取负
func TestCompileOutflowSubtracted(t *testing.T) {
	vars := []models.Variable{
		{ID: 1, Name: "stock", Kind: models.VariableKindStock, ModelOutput: true},
		{ID: 2, Name: "drain", Kind: models.VariableKindFlow,
			Equation: strp("4"), OutflowStockID: intp(1)},
	}
	compiled := Compile(newSnapshot(vars...))
	bound := Bind(compiled, newSnapshot(vars...), 1, 1)

	env := newStepEnv(0, []float64{0}, bound)
	nf, err := equation.Eval(compiled.Variables[1].NetFlow, env)
	assert.NoError(t, err)
	assert.Equal(t, -4.0, nf)
}

// TestCompileSmoothExpansion 测试smooth调用展开为辅助存量
func TestCompileSmoothExpansion(t *testing.T) {
	vars := []models.Variable{
		{ID: 1, Name: "smoothed_need", Kind: models.VariableKindVariable,
			Equation: strp("smooth(_E2_, 10)"), ModelOutput: true},
		{ID: 2, Name: "need", Kind: models.VariableKindConstant},
	}
	compiled := Compile(newSnapshot(vars...))

	assert.Len(t, compiled.Stocks, 1)
	aux := compiled.Stocks[0]
	assert.True(t, aux.Synthetic)
	assert.Negative(t, aux.ID)
	assert.NotNil(t, aux.InitExpr)
	assert.NotNil(t, aux.NetFlow)

	assert.False(t, equation.ContainsCall(compiled.Variables[1].Expr, "smooth"))
	assert.Contains(t, equation.CollectRefs(compiled.Variables[1].Expr), aux.ID)
}

// TestCompileSmoothNonPositiveTau 测试非正时间常数退化为输入表达式
func TestCompileSmoothNonPositiveTau(t *testing.T) {
	vars := []models.Variable{
		{ID: 1, Name: "smoothed_need", Kind: models.VariableKindVariable,
			Equation: strp("smooth(_E2_, 0)"), ModelOutput: true},
		{ID: 2, Name: "need", Kind: models.VariableKindConstant},
	}
	compiled := Compile(newSnapshot(vars...))

	assert.Empty(t, compiled.Stocks)
	assert.NotEmpty(t, compiled.Diagnostics)
	assert.Equal(t, []int{2}, equation.CollectRefs(compiled.Variables[1].Expr))
}

// TestCompileUnresolvedReferenceDowngraded 测试引用不存在变量的方程降级
func TestCompileUnresolvedReferenceDowngraded(t *testing.T) {
	compiled := Compile(newSnapshot(stockFlowVariables("_E99_", "1/jour")...))

	found := false
	for _, d := range compiled.Diagnostics {
		if d.VariableID == 2 {
			found = true
		}
	}
	assert.True(t, found)

	v, err := equation.Eval(compiled.Variables[2].Expr, &nullEnv{})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

// TestCompilePruneUnreachable 测试输出不可达的变量被裁剪
func TestCompilePruneUnreachable(t *testing.T) {
	vars := append(stockFlowVariables("5", "1/jour"),
		models.Variable{ID: 10, Name: "dangling", Kind: models.VariableKindVariable,
			Equation: strp("_E3_ * 2")},
		models.Variable{ID: 11, Name: "dangling_const", Kind: models.VariableKindConstant},
	)
	compiled := Compile(newSnapshot(vars...))

	assert.NotContains(t, compiled.Variables, 10)
	assert.NotContains(t, compiled.Variables, 11)
	// 初值引用使常量3保持可达
	assert.Contains(t, compiled.Variables, 3)
}

// TestCompileInputWithoutData 测试无数据输入变量：被引用回退默认值，未被引用剔除
func TestCompileInputWithoutData(t *testing.T) {
	vars := []models.Variable{
		{ID: 1, Name: "consumption", Kind: models.VariableKindVariable,
			Equation: strp("_E2_ * 2"), ModelOutput: true},
		{ID: 2, Name: "rainfall", Kind: models.VariableKindInput,
			ConstantDefaultValue: flp(3.5)},
		{ID: 3, Name: "unused_input", Kind: models.VariableKindInput},
	}
	compiled := Compile(newSnapshot(vars...))

	assert.Contains(t, compiled.Variables, 2)
	assert.Equal(t, 3.5, compiled.Variables[2].DefaultValue)
	assert.NotContains(t, compiled.Variables, 3)
	assert.Len(t, compiled.Diagnostics, 2)
}

// TestCompileInputTableFromPoints 测试实测与预测数据点合并进查找表
func TestCompileInputTableFromPoints(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "rainfall", Kind: models.VariableKindInput, ModelOutput: true},
	)
	snap.MeasuredPoints = []models.MeasuredDataPoint{
		{VariableID: 1, Date: testDay(0), Value: 10},
		{VariableID: 1, Date: testDay(10), Value: 20},
	}
	snap.ForecastedPoints = []models.ForecastedDataPoint{
		{VariableID: 1, Date: testDay(20), Value: 40},
	}
	compiled := Compile(snap)

	table := compiled.Variables[1].Table
	assert.NotNil(t, table)
	assert.Equal(t, 3, table.Len())
	assert.InDelta(t, 15.0, table.At(Ordinal(testDay(5))), 1e-9)
	assert.InDelta(t, 30.0, table.At(Ordinal(testDay(15))), 1e-9)
}

// TestCompileGeographyFiltersPoints 测试地理范围过滤数据点
func TestCompileGeographyFiltersPoints(t *testing.T) {
	snap := newSnapshot(
		models.Variable{ID: 1, Name: "rainfall", Kind: models.VariableKindInput, ModelOutput: true},
	)
	snap.Geography = GeographyScope{Country: "sd"}
	snap.MeasuredPoints = []models.MeasuredDataPoint{
		{VariableID: 1, Date: testDay(0), Value: 10, Country: "sd"},
		{VariableID: 1, Date: testDay(0), Value: 999, Country: "ke"},
	}
	compiled := Compile(snap)

	table := compiled.Variables[1].Table
	assert.NotNil(t, table)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 10.0, table.At(Ordinal(testDay(0))))
}

// nullEnv 空求值环境，常量全为零
type nullEnv struct{}

func (*nullEnv) Time() float64                    { return 0 }
func (*nullEnv) Ref(id int) (float64, error)      { return 0, nil }
func (*nullEnv) Lookup(int, float64) (float64, error) { return 0, nil }
