/*
 * @module service/equation/eval_test
 * @description 方程求值器测试，不依赖数据库
 * @architecture 测试层
 * @documentReference dev_docs/model.md
 * @stateFlow 方程解析 -> 模拟环境求值 -> 数值验证
 * @rules 覆盖惰性If、短路And/Or、除零错误和lookup委托
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs eval.go
 */

package equation

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeEnv 测试求值环境
type fakeEnv struct {
	time   float64
	values map[int]float64
	lookup func(seriesID int, t float64) (float64, error)
}

func (e *fakeEnv) Time() float64 { return e.time }

func (e *fakeEnv) Ref(id int) (float64, error) {
	v, ok := e.values[id]
	if !ok {
		return 0, fmt.Errorf("变量 %d 无值", id)
	}
	return v, nil
}

func (e *fakeEnv) Lookup(seriesID int, t float64) (float64, error) {
	if e.lookup == nil {
		return 0, fmt.Errorf("未配置 lookup")
	}
	return e.lookup(seriesID, t)
}

func mustParse(t *testing.T, input string) Node {
	node, err := Parse(input)
	assert.NoError(t, err, input)
	return node
}

// TestEvalArithmetic 测试四则运算与比较
func TestEvalArithmetic(t *testing.T) {
	env := &fakeEnv{values: map[int]float64{1: 10, 2: 4}}

	cases := []struct {
		input    string
		expected float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"_E1_ - _E2_", 6},
		{"_E1_ / _E2_", 2.5},
		{"-_E2_", -4},
		{"_E1_ > _E2_", 1},
		{"_E1_ < _E2_", 0},
		{"_E1_ == 10", 1},
		{"_E1_ != 10", 0},
		{"_E2_ >= 4", 1},
		{"_E2_ <= 3", 0},
	}

	for _, c := range cases {
		v, err := Eval(mustParse(t, c.input), env)
		assert.NoError(t, err, c.input)
		assert.Equal(t, c.expected, v, c.input)
	}
}

// TestEvalDivisionByZero 测试除零返回错误而非无穷
func TestEvalDivisionByZero(t *testing.T) {
	env := &fakeEnv{values: map[int]float64{1: 5, 2: 0}}
	_, err := Eval(mustParse(t, "_E1_ / _E2_"), env)
	assert.Error(t, err)
	var ee *EvalError
	assert.ErrorAs(t, err, &ee)
}

// TestEvalTime 测试time()返回当前模拟时刻
func TestEvalTime(t *testing.T) {
	env := &fakeEnv{time: 123.5}
	v, err := Eval(mustParse(t, "time()"), env)
	assert.NoError(t, err)
	assert.Equal(t, 123.5, v)
}

// TestEvalIfLazy 测试If惰性求值，未选中分支的错误不触发
func TestEvalIfLazy(t *testing.T) {
	env := &fakeEnv{values: map[int]float64{1: 5, 2: 0}}

	v, err := Eval(mustParse(t, "If(1, _E1_, _E1_ / _E2_)"), env)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, v)

	v, err = Eval(mustParse(t, "If(0, _E1_ / _E2_, _E1_)"), env)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, v)

	_, err = Eval(mustParse(t, "If(1, _E1_ / _E2_, _E1_)"), env)
	assert.Error(t, err)
}

// TestEvalAndOr 测试And/Or的布尔语义
func TestEvalAndOr(t *testing.T) {
	env := &fakeEnv{values: map[int]float64{1: 1, 2: 0, 3: 7}}

	cases := []struct {
		input    string
		expected float64
	}{
		{"And(_E1_, _E3_)", 1},
		{"And(_E1_, _E2_)", 0},
		{"Or(_E2_, _E2_)", 0},
		{"Or(_E2_, _E3_)", 1},
		{"And(_E1_, _E3_, _E2_)", 0},
	}

	for _, c := range cases {
		v, err := Eval(mustParse(t, c.input), env)
		assert.NoError(t, err, c.input)
		assert.Equal(t, c.expected, v, c.input)
	}
}

// TestEvalAndShortCircuit 测试And遇零短路
func TestEvalAndShortCircuit(t *testing.T) {
	env := &fakeEnv{values: map[int]float64{1: 0}}
	// _E9_ 无值，但 And 在第一个参数为 0 时已短路
	v, err := Eval(mustParse(t, "And(_E1_, _E9_)"), env)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

// TestEvalLookup 测试lookup委托给环境
func TestEvalLookup(t *testing.T) {
	env := &fakeEnv{
		time:   10,
		values: map[int]float64{},
		lookup: func(seriesID int, tv float64) (float64, error) {
			assert.Equal(t, 5, seriesID)
			return tv * 2, nil
		},
	}

	v, err := Eval(mustParse(t, "lookup(time(), _E5_)"), env)
	assert.NoError(t, err)
	assert.Equal(t, 20.0, v)
}

// TestEvalSmoothNotExpanded 测试未展开的smooth报错
func TestEvalSmoothNotExpanded(t *testing.T) {
	env := &fakeEnv{values: map[int]float64{1: 1}}
	_, err := Eval(mustParse(t, "smooth(_E1_, 30)"), env)
	assert.Error(t, err)
}

// TestEvalRefError 测试引用错误向上传播
func TestEvalRefError(t *testing.T) {
	env := &fakeEnv{values: map[int]float64{}}
	_, err := Eval(mustParse(t, "_E1_ + 1"), env)
	assert.Error(t, err)
}

// TestCheckFinite 测试有限数校验
func TestCheckFinite(t *testing.T) {
	assert.NoError(t, CheckFinite(1.5))
	assert.Error(t, CheckFinite(math.NaN()))
	assert.Error(t, CheckFinite(math.Inf(1)))
	assert.Error(t, CheckFinite(math.Inf(-1)))
}
