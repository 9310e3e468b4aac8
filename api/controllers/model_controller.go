/*
 * @module api/controllers/model_controller
 * @description 模型图控制器，提供模型、变量、变量连接的管理接口
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 请求接收 -> 业务逻辑处理 -> 响应返回
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies net/http, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/modelgraph
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

// ModelController 模型图控制器
type ModelController struct {
	service *modelgraph.Service
}

// NewModelController 创建模型图控制器实例
func NewModelController() *ModelController {
	return &ModelController{
		service: service.GlobalModelGraphService,
	}
}

// AddModel 创建模型
// @Summary 创建模型
// @Description 创建一个系统动力学模型
// @Tags 模型图
// @Accept json
// @Produce json
// @Param request body models.SamraModel true "模型信息"
// @Success 200 {object} APIResponse{data=models.SamraModel}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /models [post]
func (c *ModelController) AddModel(w http.ResponseWriter, r *http.Request) {
	var req models.SamraModel
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	if err := c.service.CreateModel(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("创建模型失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("创建模型成功", req))
}

// ListModels 获取模型列表
// @Summary 获取模型列表
// @Tags 模型图
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.SamraModel}
// @Failure 500 {object} APIResponse
// @Router /models [get]
func (c *ModelController) ListModels(w http.ResponseWriter, r *http.Request) {
	list, err := c.service.ListModels()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取模型列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取模型列表成功", list))
}

// GetModel 获取模型详情
// @Summary 获取模型详情
// @Description 获取模型及其全部变量
// @Tags 模型图
// @Produce json
// @Param id path int true "模型ID"
// @Success 200 {object} APIResponse{data=models.SamraModel}
// @Failure 404 {object} APIResponse
// @Router /models/{id} [get]
func (c *ModelController) GetModel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("模型ID格式错误", err))
		return
	}

	model, err := c.service.GetModel(id)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("获取模型失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取模型成功", model))
}

// AddVariable 创建变量
// @Summary 创建变量
// @Tags 模型图
// @Accept json
// @Produce json
// @Param request body models.Variable true "变量信息"
// @Success 200 {object} APIResponse{data=models.Variable}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /variables [post]
func (c *ModelController) AddVariable(w http.ResponseWriter, r *http.Request) {
	var req models.Variable
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	if err := c.service.CreateVariable(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("创建变量失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建变量成功", req))
}

// UpdateVariable 更新变量
// @Summary 更新变量
// @Tags 模型图
// @Accept json
// @Produce json
// @Param request body models.Variable true "变量信息"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /variables [put]
func (c *ModelController) UpdateVariable(w http.ResponseWriter, r *http.Request) {
	var req models.Variable
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	if err := c.service.UpdateVariable(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("更新变量失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("更新变量成功", nil))
}

// DeleteVariable 删除变量
// @Summary 删除变量
// @Description 删除变量并级联清理其连接和常量取值
// @Tags 模型图
// @Produce json
// @Param id path int true "变量ID"
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /variables/{id} [delete]
func (c *ModelController) DeleteVariable(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("变量ID格式错误", err))
		return
	}

	if err := c.service.DeleteVariable(id); err != nil {
		render.JSON(w, r, InternalErrorResponse("删除变量失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("删除变量成功", nil))
}

// ListVariables 获取模型变量列表
// @Summary 获取模型变量列表
// @Tags 模型图
// @Produce json
// @Param model_id query int true "模型ID"
// @Success 200 {object} APIResponse{data=[]models.Variable}
// @Failure 500 {object} APIResponse
// @Router /variables [get]
func (c *ModelController) ListVariables(w http.ResponseWriter, r *http.Request) {
	modelID, err := strconv.Atoi(r.URL.Query().Get("model_id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("model_id 参数格式错误", err))
		return
	}

	list, err := c.service.ListVariables(modelID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取变量列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取变量列表成功", list))
}

// AddConnection 创建变量连接
// @Summary 创建变量连接
// @Description 创建方程依赖的有向边，同一有序对至多一条
// @Tags 模型图
// @Accept json
// @Produce json
// @Param request body models.VariableConnection true "连接信息"
// @Success 200 {object} APIResponse{data=models.VariableConnection}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /connections [post]
func (c *ModelController) AddConnection(w http.ResponseWriter, r *http.Request) {
	var req models.VariableConnection
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	if err := c.service.CreateConnection(&req); err != nil {
		render.JSON(w, r, InternalErrorResponse("创建连接失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建连接成功", req))
}

// DeleteConnection 删除变量连接
// @Summary 删除变量连接
// @Tags 模型图
// @Produce json
// @Param id path int true "连接ID"
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /connections/{id} [delete]
func (c *ModelController) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("连接ID格式错误", err))
		return
	}

	if err := c.service.DeleteConnection(id); err != nil {
		render.JSON(w, r, InternalErrorResponse("删除连接失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("删除连接成功", nil))
}

// ListConnections 获取模型连接列表
// @Summary 获取模型连接列表
// @Tags 模型图
// @Produce json
// @Param model_id query int true "模型ID"
// @Success 200 {object} APIResponse{data=[]models.VariableConnection}
// @Failure 500 {object} APIResponse
// @Router /connections [get]
func (c *ModelController) ListConnections(w http.ResponseWriter, r *http.Request) {
	modelID, err := strconv.Atoi(r.URL.Query().Get("model_id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("model_id 参数格式错误", err))
		return
	}

	list, err := c.service.ListConnections(modelID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取连接列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取连接列表成功", list))
}
