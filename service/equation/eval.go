/*
 * @module service/equation/eval
 * @description 方程语法树受限求值器，封闭命名空间，无任何环境外状态访问
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/equation_language.md
 * @stateFlow 语法树 + 求值环境 -> 数值结果或求值错误
 * @rules 求值只能触达 Env 接口暴露的 time/引用/查找表三种能力；
 *        smooth 调用必须在编译展开阶段消除，求值期遇到即报错
 * @dependencies math
 * @refs service/engine/compiler.go, service/engine/runner.go
 */

package equation

import (
	"fmt"
	"math"
)

// Env 求值环境，编译后的模型为每个积分步提供一个实现
type Env interface {
	// Time 当前模拟时刻(序数日)
	Time() float64
	// Ref 解析变量引用的当前值
	Ref(id int) (float64, error)
	// Lookup 查找表取值，seriesID 为输入变量 id
	Lookup(seriesID int, t float64) (float64, error)
}

// EvalError 求值错误，携带出错的节点描述
type EvalError struct {
	Detail string
}

func (e *EvalError) Error() string {
	return "方程求值失败: " + e.Detail
}

func evalErrorf(format string, args ...interface{}) error {
	return &EvalError{Detail: fmt.Sprintf(format, args...)}
}

// Eval 在给定环境下求值语法树
// 布尔语义：非零为真，比较和逻辑运算返回 1 或 0
func Eval(n Node, env Env) (float64, error) {
	switch t := n.(type) {
	case *NumberNode:
		return t.Value, nil

	case *RefNode:
		return env.Ref(t.ID)

	case *BinaryNode:
		left, err := Eval(t.Left, env)
		if err != nil {
			return 0, err
		}
		right, err := Eval(t.Right, env)
		if err != nil {
			return 0, err
		}
		return evalBinary(t.Op, left, right)

	case *CallNode:
		return evalCall(t, env)

	default:
		return 0, evalErrorf("未知节点类型 %T", n)
	}
}

func evalBinary(op string, left, right float64) (float64, error) {
	switch op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, evalErrorf("除数为零")
		}
		return left / right, nil
	case "<":
		return boolToFloat(left < right), nil
	case "<=":
		return boolToFloat(left <= right), nil
	case ">":
		return boolToFloat(left > right), nil
	case ">=":
		return boolToFloat(left >= right), nil
	case "==":
		return boolToFloat(left == right), nil
	case "!=":
		return boolToFloat(left != right), nil
	default:
		return 0, evalErrorf("未知运算符 %q", op)
	}
}

func evalCall(call *CallNode, env Env) (float64, error) {
	switch call.Func {
	case "time":
		return env.Time(), nil

	case "if":
		cond, err := Eval(call.Args[0], env)
		if err != nil {
			return 0, err
		}
		// 惰性求值，未选中的分支不触发其中的运算错误
		if cond != 0 {
			return Eval(call.Args[1], env)
		}
		return Eval(call.Args[2], env)

	case "and":
		for _, arg := range call.Args {
			v, err := Eval(arg, env)
			if err != nil {
				return 0, err
			}
			if v == 0 {
				return 0, nil
			}
		}
		return 1, nil

	case "or":
		for _, arg := range call.Args {
			v, err := Eval(arg, env)
			if err != nil {
				return 0, err
			}
			if v != 0 {
				return 1, nil
			}
		}
		return 0, nil

	case "lookup":
		t, err := Eval(call.Args[0], env)
		if err != nil {
			return 0, err
		}
		series, ok := call.Args[1].(*RefNode)
		if !ok {
			return 0, evalErrorf("lookup 第二个参数必须是变量占位符")
		}
		return env.Lookup(series.ID, t)

	case "smooth":
		// smooth 不是求解器原语，编译 Expand 阶段必须已将其替换为辅助存量引用
		return 0, evalErrorf("smooth 未在编译阶段展开")

	default:
		return 0, evalErrorf("函数 %q 不在白名单内", call.Func)
	}
}

// CheckFinite 校验求值结果为有限数
func CheckFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return evalErrorf("结果不是有限数: %v", v)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
