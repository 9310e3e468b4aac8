/*
 * @module api/controllers/meta_controller
 * @description 元信息控制器，提供变量类型、聚合方式等枚举字典
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 请求接收 -> 静态字典返回
 * @rules 枚举字典与模型定义保持一致，供前端下拉选择使用
 * @dependencies net/http, github.com/go-chi/render
 * @refs service/models/variable.go
 */

package controllers

import (
	"net/http"

	"samra-service/service/models"

	"github.com/go-chi/render"
)

// MetaController 元信息控制器
type MetaController struct{}

// NewMetaController 创建元信息控制器实例
func NewMetaController() *MetaController {
	return &MetaController{}
}

// GetVariableKinds 获取变量类型枚举
// @Summary 获取变量类型枚举
// @Tags 元信息
// @Produce json
// @Success 200 {object} APIResponse{data=[]string}
// @Router /meta/variable-kinds [get]
func (c *MetaController) GetVariableKinds(w http.ResponseWriter, r *http.Request) {
	kinds := []string{
		models.VariableKindStock,
		models.VariableKindFlow,
		models.VariableKindVariable,
		models.VariableKindInput,
		models.VariableKindSeasonalInput,
		models.VariableKindConstant,
		models.VariableKindHouseholdConstant,
		models.VariableKindScenarioConstant,
		models.VariableKindPulseInput,
	}
	render.JSON(w, r, SuccessResponse("获取变量类型成功", kinds))
}

// GetAggregateModes 获取聚合方式枚举
// @Summary 获取聚合方式枚举
// @Tags 元信息
// @Produce json
// @Success 200 {object} APIResponse{data=[]string}
// @Router /meta/aggregate-modes [get]
func (c *MetaController) GetAggregateModes(w http.ResponseWriter, r *http.Request) {
	modes := []string{
		models.AggregateByMean,
		models.AggregateBySum,
		models.AggregateByChange,
		models.AggregateByChangePercent,
	}
	render.JSON(w, r, SuccessResponse("获取聚合方式成功", modes))
}

// GetEquationFunctions 获取方程函数白名单
// @Summary 获取方程函数白名单
// @Tags 元信息
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]int}
// @Router /meta/equation-functions [get]
func (c *MetaController) GetEquationFunctions(w http.ResponseWriter, r *http.Request) {
	// 参数个数，-1 表示变长
	functions := map[string]int{
		"time":   0,
		"lookup": 2,
		"if":     3,
		"and":    -1,
		"or":     -1,
		"smooth": 2,
	}
	render.JSON(w, r, SuccessResponse("获取方程函数成功", functions))
}
