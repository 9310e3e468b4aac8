/*
 * @module service/equation/parser_test
 * @description 方程微语言解析器测试，不依赖数据库
 * @architecture 测试层
 * @documentReference dev_docs/model.md
 * @stateFlow 方程文本输入 -> 解析 -> AST结构验证
 * @rules 覆盖占位符、运算符优先级、函数白名单和错误路径
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs parser.go, lexer.go
 */

package equation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseNumber 测试数字字面量解析
func TestParseNumber(t *testing.T) {
	node, err := Parse("42.5")
	assert.NoError(t, err)
	num, ok := node.(*NumberNode)
	assert.True(t, ok)
	assert.Equal(t, 42.5, num.Value)
}

// TestParseScientificNotation 测试科学计数法
func TestParseScientificNotation(t *testing.T) {
	node, err := Parse("1.5e3")
	assert.NoError(t, err)
	num, ok := node.(*NumberNode)
	assert.True(t, ok)
	assert.Equal(t, 1500.0, num.Value)
}

// TestParsePlaceholder 测试变量占位符解析
func TestParsePlaceholder(t *testing.T) {
	node, err := Parse("_E42_")
	assert.NoError(t, err)
	ref, ok := node.(*RefNode)
	assert.True(t, ok)
	assert.Equal(t, 42, ref.ID)
}

// TestParsePrecedence 测试运算符优先级：乘除高于加减，比较最低
func TestParsePrecedence(t *testing.T) {
	node, err := Parse("1 + 2 * 3")
	assert.NoError(t, err)
	bin, ok := node.(*BinaryNode)
	assert.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	right, ok := bin.Right.(*BinaryNode)
	assert.True(t, ok)
	assert.Equal(t, "*", right.Op)

	node, err = Parse("_E1_ + 1 > _E2_ * 2")
	assert.NoError(t, err)
	cmp, ok := node.(*BinaryNode)
	assert.True(t, ok)
	assert.Equal(t, ">", cmp.Op)
}

// TestParseParentheses 测试括号改变结合
func TestParseParentheses(t *testing.T) {
	node, err := Parse("(1 + 2) * 3")
	assert.NoError(t, err)
	bin, ok := node.(*BinaryNode)
	assert.True(t, ok)
	assert.Equal(t, "*", bin.Op)
}

// TestParseUnaryMinus 测试一元负号
func TestParseUnaryMinus(t *testing.T) {
	node, err := Parse("-_E7_")
	assert.NoError(t, err)
	bin, ok := node.(*BinaryNode)
	assert.True(t, ok)
	assert.Equal(t, "-", bin.Op)
	left, ok := bin.Left.(*NumberNode)
	assert.True(t, ok)
	assert.Equal(t, 0.0, left.Value)
}

// TestParseFunctionCalls 测试白名单函数解析
func TestParseFunctionCalls(t *testing.T) {
	cases := []struct {
		input string
		fn    string
		args  int
	}{
		{"time()", "time", 0},
		{"If(_E1_ > 0, 1, 2)", "if", 3},
		{"And(_E1_, _E2_, _E3_)", "and", 3},
		{"Or(_E1_, _E2_)", "or", 2},
		{"lookup(time(), _E5_)", "lookup", 2},
		{"smooth(_E1_, 30)", "smooth", 2},
	}

	for _, c := range cases {
		node, err := Parse(c.input)
		assert.NoError(t, err, c.input)
		call, ok := node.(*CallNode)
		assert.True(t, ok, c.input)
		assert.Equal(t, c.fn, call.Func, c.input)
		assert.Len(t, call.Args, c.args, c.input)
	}
}

// TestParseCaseInsensitiveFunctions 测试函数名大小写归一化
func TestParseCaseInsensitiveFunctions(t *testing.T) {
	for _, input := range []string{"IF(1, 2, 3)", "if(1, 2, 3)", "If(1, 2, 3)"} {
		node, err := Parse(input)
		assert.NoError(t, err, input)
		call := node.(*CallNode)
		assert.Equal(t, "if", call.Func, input)
	}
}

// TestParseRejectsUnknownFunction 测试白名单外函数被拒绝
func TestParseRejectsUnknownFunction(t *testing.T) {
	_, err := Parse("exec(1)")
	assert.Error(t, err)
	_, err = Parse("max(1, 2)")
	assert.Error(t, err)
}

// TestParseRejectsArityMismatch 测试函数参数个数校验
func TestParseRejectsArityMismatch(t *testing.T) {
	_, err := Parse("If(1, 2)")
	assert.Error(t, err)
	_, err = Parse("time(1)")
	assert.Error(t, err)
	_, err = Parse("smooth(_E1_)")
	assert.Error(t, err)
}

// TestParseRejectsMalformed 测试语法错误返回ParseError
func TestParseRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "1 +", "(1", "_E_", "_Eabc_", "1 2", "foo"} {
		_, err := Parse(input)
		assert.Error(t, err, input)
	}

	_, err := Parse("1 +")
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

// TestCollectRefs 测试引用收集
func TestCollectRefs(t *testing.T) {
	node, err := Parse("_E1_ * _E2_ + lookup(time(), _E3_)")
	assert.NoError(t, err)
	refs := CollectRefs(node)
	assert.ElementsMatch(t, []int{1, 2, 3}, refs)
}

// TestContainsCall 测试函数调用检测
func TestContainsCall(t *testing.T) {
	node, err := Parse("_E1_ + smooth(_E2_, 14)")
	assert.NoError(t, err)
	assert.True(t, ContainsCall(node, "smooth"))
	assert.False(t, ContainsCall(node, "lookup"))
}

// TestRewriteReplacesNodes 测试自底向上重写
func TestRewriteReplacesNodes(t *testing.T) {
	node, err := Parse("_E1_ + smooth(_E2_, 14)")
	assert.NoError(t, err)

	rewritten := Rewrite(node, func(n Node) Node {
		if call, ok := n.(*CallNode); ok && call.Func == "smooth" {
			return &RefNode{ID: -1}
		}
		return n
	})

	assert.False(t, ContainsCall(rewritten, "smooth"))
	assert.Contains(t, CollectRefs(rewritten), -1)
	// 原AST不受影响
	assert.True(t, ContainsCall(node, "smooth"))
}
