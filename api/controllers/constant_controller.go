/*
 * @module api/controllers/constant_controller
 * @description 常量分层取值与情景/响应方案控制器
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 请求接收 -> 业务逻辑处理 -> 响应返回
 * @rules 常量取值按(变量,地理/情景/响应)维度整行覆盖写入
 * @dependencies net/http, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/modelgraph/constant_service.go
 */

package controllers

import (
	"net/http"
	"strconv"

	"samra-service/service"
	"samra-service/service/modelgraph"
	"samra-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ConstantController 常量取值控制器
type ConstantController struct {
	service *modelgraph.Service
}

// NewConstantController 创建常量取值控制器实例
func NewConstantController() *ConstantController {
	return &ConstantController{
		service: service.GlobalModelGraphService,
	}
}

// AddScenario 创建情景
// @Summary 创建情景
// @Tags 情景与响应
// @Accept json
// @Produce json
// @Param request body models.Scenario true "情景信息"
// @Success 200 {object} APIResponse{data=models.Scenario}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /scenarios [post]
func (c *ConstantController) AddScenario(w http.ResponseWriter, r *http.Request) {
	var req models.Scenario
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if err := c.service.CreateScenario(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("创建情景失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建情景成功", req))
}

// ListScenarios 获取情景列表
// @Summary 获取情景列表
// @Tags 情景与响应
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.Scenario}
// @Failure 500 {object} APIResponse
// @Router /scenarios [get]
func (c *ConstantController) ListScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := c.service.ListScenarios()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取情景列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取情景列表成功", list))
}

// AddResponseOption 创建响应方案
// @Summary 创建响应方案
// @Description 响应方案ID为1的是基线(无干预)方案
// @Tags 情景与响应
// @Accept json
// @Produce json
// @Param request body models.ResponseOption true "响应方案信息"
// @Success 200 {object} APIResponse{data=models.ResponseOption}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /response-options [post]
func (c *ConstantController) AddResponseOption(w http.ResponseWriter, r *http.Request) {
	var req models.ResponseOption
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if err := c.service.CreateResponseOption(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("创建响应方案失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建响应方案成功", req))
}

// ListResponseOptions 获取响应方案列表
// @Summary 获取响应方案列表
// @Tags 情景与响应
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.ResponseOption}
// @Failure 500 {object} APIResponse
// @Router /response-options [get]
func (c *ConstantController) ListResponseOptions(w http.ResponseWriter, r *http.Request) {
	list, err := c.service.ListResponseOptions()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取响应方案列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取响应方案列表成功", list))
}

// SetHouseholdValue 设置住户常量取值
// @Summary 设置住户常量取值
// @Description 按地理范围写入住户常量基准值
// @Tags 常量取值
// @Accept json
// @Produce json
// @Param request body models.HouseholdConstantValue true "取值信息"
// @Success 200 {object} APIResponse{data=models.HouseholdConstantValue}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /constant-values/household [post]
func (c *ConstantController) SetHouseholdValue(w http.ResponseWriter, r *http.Request) {
	var req models.HouseholdConstantValue
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if err := c.service.SetHouseholdValue(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("设置住户常量取值失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("设置住户常量取值成功", req))
}

// SetScenarioValue 设置情景常量取值
// @Summary 设置情景常量取值
// @Tags 常量取值
// @Accept json
// @Produce json
// @Param request body models.ScenarioConstantValue true "取值信息"
// @Success 200 {object} APIResponse{data=models.ScenarioConstantValue}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /constant-values/scenario [post]
func (c *ConstantController) SetScenarioValue(w http.ResponseWriter, r *http.Request) {
	var req models.ScenarioConstantValue
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if err := c.service.SetScenarioValue(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("设置情景常量取值失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("设置情景常量取值成功", req))
}

// SetResponseValue 设置响应常量取值
// @Summary 设置响应常量取值
// @Description 响应常量取值优先级最高，按(响应方案,地理范围)覆盖
// @Tags 常量取值
// @Accept json
// @Produce json
// @Param request body models.ResponseConstantValue true "取值信息"
// @Success 200 {object} APIResponse{data=models.ResponseConstantValue}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /constant-values/response [post]
func (c *ConstantController) SetResponseValue(w http.ResponseWriter, r *http.Request) {
	var req models.ResponseConstantValue
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if err := c.service.SetResponseValue(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("设置响应常量取值失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("设置响应常量取值成功", req))
}

// SetPulseValue 设置脉冲输入取值
// @Summary 设置脉冲输入取值
// @Description 在干预起始日附近形成一次性脉冲
// @Tags 常量取值
// @Accept json
// @Produce json
// @Param request body models.PulseValue true "脉冲信息"
// @Success 200 {object} APIResponse{data=models.PulseValue}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /constant-values/pulse [post]
func (c *ConstantController) SetPulseValue(w http.ResponseWriter, r *http.Request) {
	var req models.PulseValue
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if err := c.service.SetPulseValue(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("设置脉冲输入取值失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("设置脉冲输入取值成功", req))
}

// ListConstantValues 获取变量的全部分层取值
// @Summary 获取变量的全部分层取值
// @Tags 常量取值
// @Produce json
// @Param variable_id path int true "变量ID"
// @Success 200 {object} APIResponse{data=map[string]interface{}}
// @Failure 500 {object} APIResponse
// @Router /constant-values/{variable_id} [get]
func (c *ConstantController) ListConstantValues(w http.ResponseWriter, r *http.Request) {
	variableID, err := strconv.Atoi(chi.URLParam(r, "variable_id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("variable_id 参数格式错误", err))
		return
	}

	values, err := c.service.ListConstantValues(variableID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取常量取值失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取常量取值成功", values))
}
