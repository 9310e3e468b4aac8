/*
 * @module service/equation/lexer
 * @description 方程微语言词法分析器，扫描占位符、数字、标识符和运算符
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/equation_language.md
 * @stateFlow 输入字符串 -> 逐字符扫描 -> token 序列
 * @rules 占位符格式固定为 _E<id>_，id 为十进制整数；未知字符报词法错误
 * @dependencies strconv, strings, unicode
 * @refs parser.go
 */

package equation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// token 类型
const (
	tokenNumber      = "number"
	tokenPlaceholder = "placeholder"
	tokenIdent       = "ident"
	tokenOperator    = "operator"
	tokenLeftParen   = "lparen"
	tokenRightParen  = "rparen"
	tokenComma       = "comma"
	tokenEOF         = "eof"
)

type token struct {
	kind  string
	text  string
	id    int     // 仅占位符
	value float64 // 仅数字
	pos   int
}

// lexer 方程词法分析器
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// next 返回下一个 token
func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '_':
		return l.scanPlaceholder()
	case c >= '0' && c <= '9' || c == '.':
		return l.scanNumber()
	case unicode.IsLetter(rune(c)):
		for l.pos < len(l.input) && (unicode.IsLetter(rune(l.input[l.pos])) || unicode.IsDigit(rune(l.input[l.pos]))) {
			l.pos++
		}
		return token{kind: tokenIdent, text: l.input[start:l.pos], pos: start}, nil
	case c == '(':
		l.pos++
		return token{kind: tokenLeftParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokenRightParen, text: ")", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokenComma, text: ",", pos: start}, nil
	case strings.ContainsRune("+-*/", rune(c)):
		l.pos++
		return token{kind: tokenOperator, text: string(c), pos: start}, nil
	case c == '<' || c == '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return token{kind: tokenOperator, text: l.input[start:l.pos], pos: start}, nil
	case c == '=' || c == '!':
		l.pos++
		if l.pos >= len(l.input) || l.input[l.pos] != '=' {
			return token{}, fmt.Errorf("位置 %d: 非法运算符 %q", start, string(c))
		}
		l.pos++
		return token{kind: tokenOperator, text: l.input[start:l.pos], pos: start}, nil
	default:
		return token{}, fmt.Errorf("位置 %d: 非法字符 %q", start, string(c))
	}
}

// scanPlaceholder 扫描 _E<id>_ 占位符
func (l *lexer) scanPlaceholder() (token, error) {
	start := l.pos
	if !strings.HasPrefix(l.input[l.pos:], "_E") {
		return token{}, fmt.Errorf("位置 %d: 占位符必须以 _E 开头", start)
	}
	l.pos += 2
	digits := l.pos
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}
	if l.pos == digits || l.pos >= len(l.input) || l.input[l.pos] != '_' {
		return token{}, fmt.Errorf("位置 %d: 占位符格式错误，应为 _E<id>_", start)
	}
	id, err := strconv.Atoi(l.input[digits:l.pos])
	if err != nil {
		return token{}, fmt.Errorf("位置 %d: 占位符 id 解析失败: %w", start, err)
	}
	l.pos++ // 吃掉结尾下划线
	return token{kind: tokenPlaceholder, text: l.input[start:l.pos], id: id, pos: start}, nil
}

// scanNumber 扫描数字字面量，支持小数和科学计数法
func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && (l.input[l.pos] >= '0' && l.input[l.pos] <= '9' || l.input[l.pos] == '.') {
		l.pos++
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.pos >= len(l.input) || l.input[l.pos] < '0' || l.input[l.pos] > '9' {
			l.pos = mark // e 不属于数字，回退交给标识符处理
		} else {
			for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
				l.pos++
			}
		}
	}
	value, err := strconv.ParseFloat(l.input[start:l.pos], 64)
	if err != nil {
		return token{}, fmt.Errorf("位置 %d: 数字 %q 解析失败", start, l.input[start:l.pos])
	}
	return token{kind: tokenNumber, text: l.input[start:l.pos], value: value, pos: start}, nil
}
