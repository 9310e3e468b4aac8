/*
 * @module service/equation/parser
 * @description 方程微语言递归下降解析器，产出标签化语法树
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/equation_language.md
 * @stateFlow token 序列 -> 递归下降 -> 语法树
 * @rules 函数名白名单固定为 time/lookup/If/And/Or/smooth，大小写不敏感；
 *        白名单之外的函数名一律报语法错误，绝不透传执行
 * @dependencies strings
 * @refs ast.go, eval.go
 */

package equation

import (
	"fmt"
	"strings"
)

// 白名单函数及其参数个数，-1 表示至少两个参数
var allowedFunctions = map[string]int{
	"time":   0,
	"lookup": 2,
	"if":     3,
	"and":    -1,
	"or":     -1,
	"smooth": 2,
}

// ParseError 方程语法错误
type ParseError struct {
	Equation string
	Pos      int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("方程语法错误(位置 %d): %s", e.Pos, e.Message)
}

// parser 递归下降解析器
type parser struct {
	input string
	lex   *lexer
	cur   token
}

// Parse 解析方程文本为语法树
// 仅接受受限表达式语言：算术、比较、白名单函数调用和 _E<id>_ 占位符
func Parse(input string) (Node, error) {
	p := &parser{input: input, lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokenEOF {
		return nil, p.errorf("多余的内容 %q", p.cur.text)
	}
	return node, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return &ParseError{Equation: p.input, Pos: p.lex.pos, Message: err.Error()}
	}
	p.cur = tok
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Equation: p.input, Pos: p.cur.pos, Message: fmt.Sprintf(format, args...)}
}

// parseComparison 比较层，不允许链式比较
func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokenOperator {
		switch p.cur.text {
		case "<", "<=", ">", ">=", "==", "!=":
			op := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &BinaryNode{Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokenOperator && (p.cur.text == "+" || p.cur.text == "-") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokenOperator && (p.cur.text == "*" || p.cur.text == "/") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur.kind == tokenOperator && p.cur.text == "-" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: "-", Left: &NumberNode{Value: 0}, Right: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.cur.kind {
	case tokenNumber:
		node := &NumberNode{Value: p.cur.value}
		return node, p.advance()

	case tokenPlaceholder:
		node := &RefNode{ID: p.cur.id}
		return node, p.advance()

	case tokenIdent:
		return p.parseCall()

	case tokenLeftParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokenRightParen {
			return nil, p.errorf("缺少右括号")
		}
		return node, p.advance()

	default:
		return nil, p.errorf("意外的 token %q", p.cur.text)
	}
}

// parseCall 解析白名单函数调用
func (p *parser) parseCall() (Node, error) {
	name := strings.ToLower(p.cur.text)
	arity, ok := allowedFunctions[name]
	if !ok {
		return nil, p.errorf("未知函数 %q，仅允许 time/lookup/If/And/Or/smooth", p.cur.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokenLeftParen {
		return nil, p.errorf("函数 %s 后缺少左括号", name)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var args []Node
	if p.cur.kind != tokenRightParen {
		for {
			arg, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.kind != tokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if p.cur.kind != tokenRightParen {
		return nil, p.errorf("函数 %s 缺少右括号", name)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if arity >= 0 && len(args) != arity {
		return nil, p.errorf("函数 %s 需要 %d 个参数，实际 %d 个", name, arity, len(args))
	}
	if arity < 0 && len(args) < 2 {
		return nil, p.errorf("函数 %s 至少需要 2 个参数", name)
	}
	return &CallNode{Func: name, Args: args}, nil
}
