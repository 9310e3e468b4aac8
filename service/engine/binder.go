/*
 * @module service/engine/binder
 * @description 情景/响应方案常量绑定器：为一个(情景,响应方案,地理范围)组合解析全部常量与脉冲
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/model_conventions.md
 * @stateFlow 家庭基线 -> 情景覆盖 -> 响应方案覆盖，后层整体替换前层；脉冲独立求值
 * @rules 任一常量变量在所有层都无取值时默认 0.0 并告警，绑定必须继续；
 *        脉冲永不参与分层解析，始终是窗口求和的时间函数
 * @dependencies math
 * @refs compiled.go, runner.go
 */

package engine

import "math"

// Bind 为一个(情景,响应方案)组合绑定常量、脉冲窗口和存量初值
// 地理范围取编译时快照中的范围
func Bind(compiled *CompiledModel, snap *Snapshot, scenarioID, responseID int) *BoundModel {
	b := &BoundModel{
		Compiled:       compiled,
		ScenarioID:     scenarioID,
		ResponseID:     responseID,
		ConstantValues: make(map[int]float64),
		Pulses:         make(map[int][]PulseWindow),
		StockInitials:  make(map[int]float64),
	}
	var diags diagnostics

	bindConstants(b, snap, scenarioID, responseID, &diags)
	bindPulses(b, snap, responseID)
	bindStockInitials(b, &diags)

	b.Diagnostics = diags.items
	return b
}

// bindConstants 分层解析常量值，优先级从低到高：家庭基线 -> 情景 -> 响应方案
func bindConstants(b *BoundModel, snap *Snapshot, scenarioID, responseID int, diags *diagnostics) {
	resolved := make(map[int]bool)

	// 家庭基线层，仅按地理范围限定
	for _, hv := range snap.HouseholdValues {
		if !isConstant(b.Compiled, hv.VariableID) {
			continue
		}
		if snap.Geography.Matches(hv.Country, hv.Region, hv.Locality) {
			b.ConstantValues[hv.VariableID] = hv.Value
			resolved[hv.VariableID] = true
		}
	}

	// 情景层，整体替换同变量的基线值
	for _, sv := range snap.ScenarioValues {
		if sv.ScenarioID != scenarioID || !isConstant(b.Compiled, sv.VariableID) {
			continue
		}
		b.ConstantValues[sv.VariableID] = sv.Value
		resolved[sv.VariableID] = true
	}

	// 响应方案层，按响应方案和地理范围限定，最高优先级
	for _, rv := range snap.ResponseValues {
		if rv.ResponseOptionID != responseID || !isConstant(b.Compiled, rv.VariableID) {
			continue
		}
		if snap.Geography.Matches(rv.Country, rv.Region, rv.Locality) {
			b.ConstantValues[rv.VariableID] = rv.Value
			resolved[rv.VariableID] = true
		}
	}

	// 无任何层取值的常量默认 0.0，运行必须继续
	for id, cv := range b.Compiled.Variables {
		if cv.Kind == PrimConstant && !resolved[id] {
			b.ConstantValues[id] = 0.0
			diags.addf(StageBind, id, cv.Name, "常量在所有取值层均无记录，默认 0.0")
		}
	}
}

// bindPulses 收集响应方案的脉冲窗口：起始日期前后各 PulseHalfWidthDays 天的矩形窗
func bindPulses(b *BoundModel, snap *Snapshot, responseID int) {
	for _, pv := range snap.PulseValues {
		if pv.ResponseOptionID != responseID {
			continue
		}
		cv, ok := b.Compiled.Variables[pv.VariableID]
		if !ok || cv.Kind != PrimPulse {
			continue
		}
		if !snap.Geography.Matches(pv.Country, pv.Region, pv.Locality) {
			continue
		}
		center := Ordinal(pv.StartDate)
		b.Pulses[pv.VariableID] = append(b.Pulses[pv.VariableID], PulseWindow{
			Start: center - PulseHalfWidthDays,
			End:   center + PulseHalfWidthDays,
			Value: pv.Value,
		})
	}
}

// bindStockInitials 解析真实存量初值；初值引用缺失或不可解析时使用固定回退值
func bindStockInitials(b *BoundModel, diags *diagnostics) {
	for _, stock := range b.Compiled.Stocks {
		if stock.Synthetic {
			continue // 辅助存量初值为表达式，由运行器在起点求值
		}
		initial := fallbackStockInitial
		if stock.InitRefID != nil {
			if v, ok := b.ConstantValues[*stock.InitRefID]; ok {
				initial = v
			} else {
				diags.addf(StageBind, stock.ID, stock.Name,
					"存量初值引用的变量 %d 不是已编译常量，使用固定回退值 %g",
					*stock.InitRefID, fallbackStockInitial)
			}
		}
		if math.IsNaN(initial) || math.IsInf(initial, 0) {
			diags.addf(StageBind, stock.ID, stock.Name,
				"存量初值不是有限数，使用固定回退值 %g", fallbackStockInitial)
			initial = fallbackStockInitial
		}
		b.StockInitials[stock.ID] = initial
	}
}

func isConstant(compiled *CompiledModel, variableID int) bool {
	cv, ok := compiled.Variables[variableID]
	return ok && cv.Kind == PrimConstant
}
