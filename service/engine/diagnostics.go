/*
 * @module service/engine/diagnostics
 * @description 编译与常量绑定阶段的诊断信息定义，可恢复告警的一等返回值
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/error_taxonomy.md
 * @stateFlow 编译/绑定产生告警 -> 汇总到运行报告 -> 持久化供人工排查
 * @rules 可恢复问题(坏方程、缺数据、缺常量)降级为诊断并继续；运行期求值错误不降级
 * @dependencies log/slog
 * @refs service/simulation/simulation_service.go
 */

package engine

import (
	"fmt"
	"log/slog"
)

// 诊断阶段常量
const (
	StageCompile = "compile" // 模型编译阶段
	StageBind    = "bind"    // 常量绑定阶段
)

// Diagnostic 一条可恢复告警
type Diagnostic struct {
	Stage        string `json:"stage"`
	VariableID   int    `json:"variable_id"`
	VariableName string `json:"variable_name"`
	Message      string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] 变量 %d(%s): %s", d.Stage, d.VariableID, d.VariableName, d.Message)
}

// diagnostics 告警累加器，记录的同时输出结构化日志
type diagnostics struct {
	items []Diagnostic
}

func (ds *diagnostics) addf(stage string, id int, name, format string, args ...interface{}) {
	d := Diagnostic{
		Stage:        stage,
		VariableID:   id,
		VariableName: name,
		Message:      fmt.Sprintf(format, args...),
	}
	ds.items = append(ds.items, d)
	slog.Warn("模型诊断告警",
		"stage", d.Stage,
		"variable_id", d.VariableID,
		"variable_name", d.VariableName,
		"message", d.Message,
	)
}
