/*
 * @module service/equation/ast
 * @description 方程微语言的语法树定义，标签化变体节点与遍历工具
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/equation_language.md
 * @stateFlow 方程文本 -> 词法分析 -> 语法树 -> 受限求值
 * @rules 语法树节点集合封闭，不允许出现白名单之外的运算和函数
 * @dependencies 无外部依赖
 * @refs parser.go, eval.go
 */

package equation

// Node 方程语法树节点
type Node interface {
	node()
}

// NumberNode 数字字面量
type NumberNode struct {
	Value float64
}

// RefNode 变量引用，对应方程文本中的占位符 _E<id>_
type RefNode struct {
	ID int
}

// BinaryNode 二元运算，Op 取值 + - * / < <= > >= == !=
type BinaryNode struct {
	Op    string
	Left  Node
	Right Node
}

// CallNode 函数调用，Func 为小写规范化后的白名单函数名
// 取值 time / lookup / if / and / or / smooth
type CallNode struct {
	Func string
	Args []Node
}

func (*NumberNode) node() {}
func (*RefNode) node()    {}
func (*BinaryNode) node() {}
func (*CallNode) node()   {}

// Zero 常量零方程，解析失败的方程统一降级为该节点
func Zero() Node {
	return &NumberNode{Value: 0}
}

// CollectRefs 收集语法树中全部变量引用的 id，去重，出现序
func CollectRefs(n Node) []int {
	seen := make(map[int]bool)
	var ids []int
	Walk(n, func(node Node) {
		if ref, ok := node.(*RefNode); ok && !seen[ref.ID] {
			seen[ref.ID] = true
			ids = append(ids, ref.ID)
		}
	})
	return ids
}

// ContainsCall 判断语法树中是否出现指定函数调用
func ContainsCall(n Node, fn string) bool {
	found := false
	Walk(n, func(node Node) {
		if call, ok := node.(*CallNode); ok && call.Func == fn {
			found = true
		}
	})
	return found
}

// Walk 先序遍历语法树
func Walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	switch t := n.(type) {
	case *BinaryNode:
		Walk(t.Left, visit)
		Walk(t.Right, visit)
	case *CallNode:
		for _, arg := range t.Args {
			Walk(arg, visit)
		}
	}
}

// Rewrite 自底向上重写语法树，f 对每个节点返回替换节点(可返回原节点)
func Rewrite(n Node, f func(Node) Node) Node {
	if n == nil {
		return nil
	}
	switch t := n.(type) {
	case *BinaryNode:
		left := Rewrite(t.Left, f)
		right := Rewrite(t.Right, f)
		if left != t.Left || right != t.Right {
			n = &BinaryNode{Op: t.Op, Left: left, Right: right}
		}
	case *CallNode:
		changed := false
		args := make([]Node, len(t.Args))
		for i, arg := range t.Args {
			args[i] = Rewrite(arg, f)
			if args[i] != t.Args[i] {
				changed = true
			}
		}
		if changed {
			n = &CallNode{Func: t.Func, Args: args}
		}
	}
	return f(n)
}
