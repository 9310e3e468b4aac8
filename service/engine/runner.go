/*
 * @module service/engine/runner
 * @description 模拟运行器：固定步长显式欧拉积分，产出输出变量的稠密时间序列
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/model_conventions.md
 * @stateFlow 存量初值 -> 逐步求值(先流量/转换变量后推进存量) -> 结果序列
 * @rules 每步先用当前存量值求全部输出和净流量，再按(净流量 x 步长)推进存量；
 *        运行期求值异常(除零、非有限数)对该组合致命，绝不静默置零
 * @dependencies samra-service/service/equation, time
 * @refs compiled.go, aggregator.go
 */

package engine

import (
	"fmt"
	"time"

	"samra-service/service/equation"
)

// SimulationError 运行期错误，仅中止当前(情景,响应方案,地理范围)组合
type SimulationError struct {
	VariableID   int
	VariableName string
	Time         float64
	Err          error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("模拟运行失败: 变量 %d(%s) 在 t=%s 求值异常: %v",
		e.VariableID, e.VariableName, FromOrdinal(e.Time).Format("2006-01-02"), e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// ResultPoint 某个输出变量在一个积分步的取值
type ResultPoint struct {
	Ordinal float64
	Date    time.Time
	Value   float64
}

// ResultSet 一次模拟运行的稠密结果
type ResultSet struct {
	ScenarioID int
	ResponseID int
	StepDays   float64
	Series     map[int][]ResultPoint // 输出变量 id -> 时间序列
}

// RunSimulation 从起始日期积分到结束日期(含两端)，返回输出变量的稠密序列
func RunSimulation(bound *BoundModel, startDate, endDate time.Time, stepDays float64) (*ResultSet, error) {
	if stepDays <= 0 {
		return nil, fmt.Errorf("步长必须为正数，实际 %g", stepDays)
	}
	t0, t1 := Ordinal(startDate), Ordinal(endDate)
	if t1 < t0 {
		return nil, fmt.Errorf("结束日期早于起始日期")
	}

	model := bound.Compiled
	state := make([]float64, len(model.Stocks))

	// 真实存量初值已在绑定阶段解析
	for _, stock := range model.Stocks {
		if !stock.Synthetic {
			state[stock.StateIndex] = bound.StockInitials[stock.ID]
		}
	}
	// 辅助存量初值为其输入表达式在起点的取值，按生成顺序求值，
	// 后生成的辅助存量可以引用先生成的
	for _, stock := range model.Stocks {
		if !stock.Synthetic {
			continue
		}
		env := newStepEnv(t0, state, bound)
		v, err := equation.Eval(stock.InitExpr, env)
		if err != nil {
			return nil, &SimulationError{VariableID: stock.ID, VariableName: stock.Name, Time: t0, Err: err}
		}
		state[stock.StateIndex] = v
	}

	result := &ResultSet{
		ScenarioID: bound.ScenarioID,
		ResponseID: bound.ResponseID,
		StepDays:   stepDays,
		Series:     make(map[int][]ResultPoint, len(model.OutputIDs)),
	}

	for t := t0; t <= t1+1e-9; t += stepDays {
		env := newStepEnv(t, state, bound)

		// 输出变量按当前存量值求值
		for _, id := range model.OutputIDs {
			cv := model.Variables[id]
			v, err := env.Ref(id)
			if err != nil {
				return nil, &SimulationError{VariableID: id, VariableName: cv.Name, Time: t, Err: err}
			}
			if err := equation.CheckFinite(v); err != nil {
				return nil, &SimulationError{VariableID: id, VariableName: cv.Name, Time: t, Err: err}
			}
			result.Series[id] = append(result.Series[id], ResultPoint{
				Ordinal: t,
				Date:    FromOrdinal(t),
				Value:   v,
			})
		}

		// 净流量同样基于当前存量值，求值顺序与输出共享本步记忆化结果
		netflows := make([]float64, len(model.Stocks))
		for i, stock := range model.Stocks {
			nf, err := equation.Eval(stock.NetFlow, env)
			if err != nil {
				return nil, &SimulationError{VariableID: stock.ID, VariableName: stock.Name, Time: t, Err: err}
			}
			if err := equation.CheckFinite(nf); err != nil {
				return nil, &SimulationError{VariableID: stock.ID, VariableName: stock.Name, Time: t, Err: err}
			}
			netflows[i] = nf
		}

		// 显式欧拉推进
		for i, stock := range model.Stocks {
			state[stock.StateIndex] += netflows[i] * stepDays
		}
	}

	return result, nil
}
