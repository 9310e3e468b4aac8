/*
 * @module service/engine/compiled
 * @description 编译后模型的内部表示：求解器原语、状态向量、逐步求值环境
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/model_conventions.md
 * @stateFlow 模型图快照 -> 编译模型(批内共享) -> 绑定模型(每组合一份) -> 积分
 * @rules 占位符 id 到强类型原语句柄的映射由显式编译上下文持有，
 *        求值期只能通过 Env 接口触达，不依赖任何动态作用域
 * @dependencies samra-service/service/equation, samra-service/service/models
 * @refs compiler.go, binder.go, runner.go
 */

package engine

import (
	"time"

	"samra-service/service/equation"
	"samra-service/service/models"
)

// GeographyScope 地理范围过滤器，空字段表示该级不限定
type GeographyScope struct {
	Country  string `json:"country"`
	Region   string `json:"region"`
	Locality string `json:"locality"`
}

// Matches 判断一条带地理标签的记录是否落入范围
// 记录字段为空视为通配，范围字段为空视为该级不过滤
func (g GeographyScope) Matches(country, region, locality string) bool {
	match := func(scope, row string) bool {
		return scope == "" || row == "" || scope == row
	}
	return match(g.Country, country) && match(g.Region, region) && match(g.Locality, locality)
}

// Snapshot 模型图与常量取值层在运行开始时刻的完整快照
// 运行期间界面上的并发编辑不会被批内任何一次模拟观察到
type Snapshot struct {
	ModelID          int
	Geography        GeographyScope
	StartDate        time.Time
	EndDate          time.Time
	Variables        []models.Variable
	HouseholdValues  []models.HouseholdConstantValue
	ScenarioValues   []models.ScenarioConstantValue
	ResponseValues   []models.ResponseConstantValue
	PulseValues      []models.PulseValue
	MeasuredPoints   []models.MeasuredDataPoint
	SeasonalPoints   []models.SeasonalInputDataPoint
	ForecastedPoints []models.ForecastedDataPoint
}

// 求解器原语类型
type PrimitiveKind int

const (
	PrimStock     PrimitiveKind = iota // 按净流量积分的状态量
	PrimFlow                          // 速率方程
	PrimConverter                     // 即时计算方程
	PrimConstant                      // 分层解析的标量
	PrimLookup                        // 查找表时间函数
	PrimPulse                         // 脉冲窗口时间函数
)

// CompiledVariable 一个变量对应的求解器原语
type CompiledVariable struct {
	ID          int
	Name        string
	Unit        string
	Kind        PrimitiveKind
	AggregateBy string
	Output      bool // 纳入结果集

	Expr       equation.Node // PrimFlow / PrimConverter 的方程
	NetFlow    equation.Node // PrimStock 的净流量方程
	InitRefID  *int          // 存量初值引用的常量变量 id
	InitExpr   equation.Node // 辅助存量(smooth 展开)的初值表达式
	StateIndex int           // 存量在状态向量中的下标
	Synthetic  bool          // smooth 展开生成的辅助存量

	DefaultValue float64      // 常量缺省/输入数据缺失时的回退值
	Table        *LookupTable // PrimLookup 的查找表，数据缺失时为 nil
}

// CompiledModel 编译完成的可模拟模型，批内所有(情景,响应方案)组合共享
type CompiledModel struct {
	ModelID     int
	Geography   GeographyScope
	Variables   map[int]*CompiledVariable
	Stocks      []*CompiledVariable // 状态向量顺序：真实存量在前，辅助存量按生成序在后
	OutputIDs   []int               // 升序排列的输出变量 id
	Diagnostics []Diagnostic        // 编译阶段告警
}

// PulseWindow 一个脉冲矩形窗口，时间为序数日
type PulseWindow struct {
	Start float64
	End   float64
	Value float64
}

// BoundModel 为一个(情景,响应方案)组合绑定常量后的模型
type BoundModel struct {
	Compiled       *CompiledModel
	ScenarioID     int
	ResponseID     int
	ConstantValues map[int]float64       // 常量变量 id -> 生效标量
	Pulses         map[int][]PulseWindow // 脉冲变量 id -> 窗口集合
	StockInitials  map[int]float64       // 真实存量 id -> 初值
	Diagnostics    []Diagnostic          // 绑定阶段告警
}

// stepEnv 单个积分步的求值环境
// 流量/转换变量按步内记忆化递归求值，visiting 集合检测引用环
type stepEnv struct {
	t        float64
	state    []float64
	bound    *BoundModel
	memo     map[int]float64
	visiting map[int]bool
}

func newStepEnv(t float64, state []float64, bound *BoundModel) *stepEnv {
	return &stepEnv{
		t:        t,
		state:    state,
		bound:    bound,
		memo:     make(map[int]float64),
		visiting: make(map[int]bool),
	}
}

func (e *stepEnv) Time() float64 {
	return e.t
}

func (e *stepEnv) Ref(id int) (float64, error) {
	cv, ok := e.bound.Compiled.Variables[id]
	if !ok {
		return 0, &equation.EvalError{Detail: "引用了未编译的变量"}
	}

	switch cv.Kind {
	case PrimStock:
		return e.state[cv.StateIndex], nil

	case PrimConstant:
		return e.bound.ConstantValues[id], nil

	case PrimLookup:
		if cv.Table == nil || cv.Table.Len() == 0 {
			return cv.DefaultValue, nil
		}
		return cv.Table.At(e.t), nil

	case PrimPulse:
		return e.pulseValue(id), nil

	default: // PrimFlow, PrimConverter
		if v, ok := e.memo[id]; ok {
			return v, nil
		}
		if e.visiting[id] {
			return 0, &equation.EvalError{Detail: "变量引用存在环"}
		}
		e.visiting[id] = true
		v, err := equation.Eval(cv.Expr, e)
		delete(e.visiting, id)
		if err != nil {
			return 0, err
		}
		e.memo[id] = v
		return v, nil
	}
}

func (e *stepEnv) Lookup(seriesID int, t float64) (float64, error) {
	cv, ok := e.bound.Compiled.Variables[seriesID]
	if !ok {
		return 0, &equation.EvalError{Detail: "lookup 引用了未编译的变量"}
	}
	if cv.Kind != PrimLookup {
		return 0, &equation.EvalError{Detail: "lookup 只能作用于输入类变量"}
	}
	if cv.Table == nil || cv.Table.Len() == 0 {
		return cv.DefaultValue, nil
	}
	return cv.Table.At(t), nil
}

// pulseValue 脉冲变量取值：落入任一窗口的脉冲值求和，窗口外为 0
func (e *stepEnv) pulseValue(id int) float64 {
	total := 0.0
	for _, w := range e.bound.Pulses[id] {
		if e.t >= w.Start && e.t <= w.End {
			total += w.Value
		}
	}
	return total
}
