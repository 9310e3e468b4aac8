/*
 * @module service/engine/compiler
 * @description 模型编译器：把变量图快照编译为可模拟模型
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/model_conventions.md
 * @stateFlow 原语实例化 -> Bind(方程解析与存量净流量装配) -> Expand(smooth 展开)
 *            -> Resolve(引用校验、输入回退、可达性裁剪)
 * @rules 编译阶段可恢复：坏方程降级为零方程，缺失数据回退默认值，单条告警不中断整体编译；
 *        需要结构展开的算子统一放在 Expand 阶段，禁止临时的"最后再做"清单
 * @dependencies samra-service/service/equation, samra-service/service/models
 * @refs compiled.go, binder.go
 */

package engine

import (
	"fmt"
	"sort"

	"samra-service/service/equation"
	"samra-service/service/models"
)

// 编译阶段，按声明顺序执行
type compilePhase int

const (
	phaseBind compilePhase = iota // 解析方程、装配存量净流量、绑定查找表
	phaseExpand                   // 展开需要新增原语的算子(smooth -> 辅助存量)
	phaseResolve                  // 校验引用、处理缺数据输入、输出可达性裁剪
)

// fallbackStockInitial 存量初值引用缺失时的固定回退值
const fallbackStockInitial = 1.0

// compilation 一次编译的上下文，占位符 id 到原语句柄的显式映射在此持有
type compilation struct {
	snap      *Snapshot
	vars      map[int]*CompiledVariable
	sources   map[int]models.Variable // 编译进模型的源变量记录
	stockIDs  []int                   // 真实存量，快照顺序
	auxStocks []*CompiledVariable     // smooth 展开生成的辅助存量，生成顺序
	nextAuxID int
	diags     diagnostics
}

// Compile 编译模型图快照
// 编译结果在一批(情景 x 响应方案)组合间共享，常量值由绑定器按组合填充
func Compile(snap *Snapshot) *CompiledModel {
	c := &compilation{
		snap:      snap,
		vars:      make(map[int]*CompiledVariable),
		sources:   make(map[int]models.Variable),
		nextAuxID: -1,
	}

	c.instantiate()
	for phase := phaseBind; phase <= phaseResolve; phase++ {
		switch phase {
		case phaseBind:
			c.bindEquations()
		case phaseExpand:
			c.expandSmooth()
		case phaseResolve:
			c.resolveReferences()
		}
	}

	return c.finish()
}

// instantiate 按选择规则为每个变量创建求解器原语
// 所有原语必须先于方程绑定存在，方程按 id 引用原语
func (c *compilation) instantiate() {
	for _, v := range c.snap.Variables {
		var cv *CompiledVariable

		switch v.Kind {
		case models.VariableKindStock:
			cv = c.newVariable(v, PrimStock)
			if v.StockInitialValueID != nil {
				id := *v.StockInitialValueID
				cv.InitRefID = &id
			} else {
				c.diags.addf(StageCompile, v.ID, v.Name,
					"存量缺少初值引用，使用固定回退值 %g", fallbackStockInitial)
			}
			c.stockIDs = append(c.stockIDs, v.ID)

		case models.VariableKindFlow:
			// 无方程的流量不参与存量净流量求和，直接跳过
			if !v.HasEquation() {
				continue
			}
			cv = c.newVariable(v, PrimFlow)

		case models.VariableKindVariable:
			if !v.HasEquation() {
				continue
			}
			cv = c.newVariable(v, PrimConverter)

		case models.VariableKindInput:
			cv = c.newVariable(v, PrimLookup)
			cv.Table = c.buildInputTable(v.ID)

		case models.VariableKindSeasonalInput:
			cv = c.newVariable(v, PrimLookup)
			cv.Table = c.buildSeasonalTable(v.ID)

		case models.VariableKindConstant,
			models.VariableKindHouseholdConstant,
			models.VariableKindScenarioConstant:
			cv = c.newVariable(v, PrimConstant)

		case models.VariableKindPulseInput:
			cv = c.newVariable(v, PrimPulse)

		default:
			continue
		}

		c.vars[cv.ID] = cv
		c.sources[v.ID] = v
	}
}

func (c *compilation) newVariable(v models.Variable, kind PrimitiveKind) *CompiledVariable {
	cv := &CompiledVariable{
		ID:          v.ID,
		Name:        v.Name,
		Unit:        v.Unit,
		Kind:        kind,
		AggregateBy: v.AggregateBy,
		Output:      v.ModelOutput,
	}
	if v.ConstantDefaultValue != nil {
		cv.DefaultValue = *v.ConstantDefaultValue
	}
	return cv
}

// buildInputTable 合并实测与预测数据点构建查找表，地理范围过滤
func (c *compilation) buildInputTable(variableID int) *LookupTable {
	var points []TablePoint
	for _, p := range c.snap.MeasuredPoints {
		if p.VariableID == variableID && c.snap.Geography.Matches(p.Country, p.Region, p.Locality) {
			points = append(points, TablePoint{T: Ordinal(p.Date), Value: p.Value})
		}
	}
	for _, p := range c.snap.ForecastedPoints {
		if p.VariableID == variableID && c.snap.Geography.Matches(p.Country, p.Region, p.Locality) {
			points = append(points, TablePoint{T: Ordinal(p.Date), Value: p.Value})
		}
	}
	if len(points) == 0 {
		return nil
	}
	return NewLookupTable(points, false)
}

// buildSeasonalTable 按年内日序构建季节性查找表
func (c *compilation) buildSeasonalTable(variableID int) *LookupTable {
	var points []TablePoint
	for _, p := range c.snap.SeasonalPoints {
		if p.VariableID == variableID && c.snap.Geography.Matches(p.Country, p.Region, p.Locality) {
			points = append(points, TablePoint{T: float64(p.Date.YearDay()), Value: p.Value})
		}
	}
	if len(points) == 0 {
		return nil
	}
	return NewLookupTable(points, true)
}

// bindEquations Bind 阶段：解析流量/转换变量方程，装配存量净流量
func (c *compilation) bindEquations() {
	for _, v := range c.snap.Variables {
		cv, ok := c.vars[v.ID]
		if !ok || (cv.Kind != PrimFlow && cv.Kind != PrimConverter) {
			continue
		}
		node, err := equation.Parse(*v.Equation)
		if err != nil {
			c.diags.addf(StageCompile, v.ID, v.Name, "方程解析失败，降级为零方程: %v", err)
			node = equation.Zero()
		}
		cv.Expr = node
	}

	// 存量净流量 = 流入之和(单位归一化) - 流出之和(单位归一化)
	for _, stockID := range c.stockIDs {
		stock := c.vars[stockID]
		var net equation.Node
		for _, v := range c.snap.Variables {
			flow, ok := c.vars[v.ID]
			if !ok || flow.Kind != PrimFlow {
				continue
			}
			if v.InflowStockID != nil && *v.InflowStockID == stockID {
				net = addTerm(net, flowTerm(flow), "+")
			}
			if v.OutflowStockID != nil && *v.OutflowStockID == stockID {
				net = addTerm(net, flowTerm(flow), "-")
			}
		}
		if net == nil {
			net = equation.Zero()
		}
		stock.NetFlow = net
	}
}

// flowTerm 流量对存量净流量的贡献项，按月单位除以平均每月天数归一化为按日速率
func flowTerm(flow *CompiledVariable) equation.Node {
	term := equation.Node(&equation.RefNode{ID: flow.ID})
	if IsPerMonthUnit(flow.Unit) {
		term = &equation.BinaryNode{
			Op:    "/",
			Left:  term,
			Right: &equation.NumberNode{Value: DaysPerMonth},
		}
	}
	return term
}

func addTerm(net, term equation.Node, op string) equation.Node {
	if net == nil {
		if op == "-" {
			return &equation.BinaryNode{Op: "-", Left: &equation.NumberNode{Value: 0}, Right: term}
		}
		return term
	}
	return &equation.BinaryNode{Op: op, Left: net, Right: term}
}

// expandSmooth Expand 阶段：把 smooth(x, tau) 展开为辅助存量
// 辅助存量净流量为 (x - smoothed)/tau，初值为 x 在模拟起点的取值
// 该阶段必须在全部方程绑定之后执行，展开依赖已装配的方程图
func (c *compilation) expandSmooth() {
	for _, id := range c.sortedVariableIDs() {
		cv := c.vars[id]
		if cv.Expr == nil || !equation.ContainsCall(cv.Expr, "smooth") {
			continue
		}
		n := 0
		cv.Expr = equation.Rewrite(cv.Expr, func(node equation.Node) equation.Node {
			call, ok := node.(*equation.CallNode)
			if !ok || call.Func != "smooth" {
				return node
			}
			x, tau := call.Args[0], call.Args[1]
			if num, isNum := tau.(*equation.NumberNode); isNum && num.Value <= 0 {
				c.diags.addf(StageCompile, cv.ID, cv.Name,
					"smooth 时间常数 %g 非正，退化为输入表达式", num.Value)
				return x
			}
			n++
			return c.newSmoothStock(cv, x, tau, n)
		})
	}
}

// newSmoothStock 为一个 smooth 调用点生成辅助存量，返回替换用的引用节点
func (c *compilation) newSmoothStock(host *CompiledVariable, x, tau equation.Node, n int) equation.Node {
	auxID := c.nextAuxID
	c.nextAuxID--

	aux := &CompiledVariable{
		ID:        auxID,
		Name:      fmt.Sprintf("smooth_%s_%d", host.Name, n),
		Kind:      PrimStock,
		Synthetic: true,
		InitExpr:  x,
		NetFlow: &equation.BinaryNode{
			Op: "/",
			Left: &equation.BinaryNode{
				Op:    "-",
				Left:  x,
				Right: &equation.RefNode{ID: auxID},
			},
			Right: tau,
		},
	}
	c.vars[auxID] = aux
	c.auxStocks = append(c.auxStocks, aux)
	return &equation.RefNode{ID: auxID}
}

// resolveReferences Resolve 阶段：引用校验、缺数据输入处理、可达性裁剪
func (c *compilation) resolveReferences() {
	// 未解析占位符只降级该变量自身的方程，不影响其余编译
	for _, id := range c.sortedVariableIDs() {
		cv := c.vars[id]
		if cv.Expr != nil && c.downgradeUnresolved(cv, &cv.Expr) {
			continue
		}
		if cv.Synthetic {
			if c.downgradeUnresolved(cv, &cv.NetFlow) {
				cv.InitExpr = equation.Zero()
			}
		}
	}

	referenced := c.referencedSet()

	// 无数据的输入变量：被引用则回退默认值，未被引用则整体剔除
	for _, id := range c.sortedVariableIDs() {
		cv := c.vars[id]
		if cv.Kind != PrimLookup || (cv.Table != nil && cv.Table.Len() > 0) {
			continue
		}
		if referenced[id] {
			c.diags.addf(StageCompile, cv.ID, cv.Name,
				"输入变量无可用数据点，回退常量默认值 %g", cv.DefaultValue)
		} else {
			c.diags.addf(StageCompile, cv.ID, cv.Name, "输入变量无数据且未被引用，从模型中剔除")
			delete(c.vars, id)
		}
	}

	c.pruneUnreachable()
}

// downgradeUnresolved 表达式引用了未编译变量时降级为零方程，返回是否发生降级
func (c *compilation) downgradeUnresolved(cv *CompiledVariable, expr *equation.Node) bool {
	for _, refID := range equation.CollectRefs(*expr) {
		if _, ok := c.vars[refID]; !ok {
			c.diags.addf(StageCompile, cv.ID, cv.Name,
				"方程引用了不存在的变量 %d，降级为零方程", refID)
			*expr = equation.Zero()
			return true
		}
	}
	return false
}

// referencedSet 全部已编译方程引用到的变量 id 集合
func (c *compilation) referencedSet() map[int]bool {
	referenced := make(map[int]bool)
	for _, cv := range c.vars {
		for _, expr := range []equation.Node{cv.Expr, cv.NetFlow, cv.InitExpr} {
			if expr == nil {
				continue
			}
			for _, id := range equation.CollectRefs(expr) {
				referenced[id] = true
			}
		}
	}
	return referenced
}

// pruneUnreachable 从输出变量出发做引用图可达性分析，剔除不可达变量
// 取代原先对方程文本拼接做子串匹配的保守死变量消除
func (c *compilation) pruneUnreachable() {
	reachable := make(map[int]bool)
	var queue []int
	for _, id := range c.sortedVariableIDs() {
		if c.vars[id].Output {
			reachable[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		cv := c.vars[id]

		var deps []int
		for _, expr := range []equation.Node{cv.Expr, cv.NetFlow, cv.InitExpr} {
			if expr != nil {
				deps = append(deps, equation.CollectRefs(expr)...)
			}
		}
		if cv.InitRefID != nil {
			deps = append(deps, *cv.InitRefID)
		}
		for _, dep := range deps {
			if _, ok := c.vars[dep]; ok && !reachable[dep] {
				reachable[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	for _, id := range c.sortedVariableIDs() {
		if !reachable[id] {
			delete(c.vars, id)
		}
	}
}

// finish 分配状态向量下标并产出编译模型
func (c *compilation) finish() *CompiledModel {
	model := &CompiledModel{
		ModelID:     c.snap.ModelID,
		Geography:   c.snap.Geography,
		Variables:   c.vars,
		Diagnostics: c.diags.items,
	}

	index := 0
	for _, id := range c.stockIDs {
		if cv, ok := c.vars[id]; ok {
			cv.StateIndex = index
			index++
			model.Stocks = append(model.Stocks, cv)
		}
	}
	for _, aux := range c.auxStocks {
		if _, ok := c.vars[aux.ID]; ok {
			aux.StateIndex = index
			index++
			model.Stocks = append(model.Stocks, aux)
		}
	}

	for id, cv := range c.vars {
		if cv.Output {
			model.OutputIDs = append(model.OutputIDs, id)
		}
	}
	sort.Ints(model.OutputIDs)
	return model
}

// sortedVariableIDs 当前编译集内变量 id 的确定性遍历顺序
func (c *compilation) sortedVariableIDs() []int {
	ids := make([]int, 0, len(c.vars))
	for id := range c.vars {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
