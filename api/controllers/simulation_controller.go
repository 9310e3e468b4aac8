/*
 * @module api/controllers/simulation_controller
 * @description 模拟控制器，提供模拟运行、结果聚合读取、运行记录与定时配置接口
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 请求接收 -> 编译/绑定/积分/持久化编排 -> 响应返回
 * @rules 单组合失败不影响其余组合，汇总报告逐组合给出结果
 * @dependencies net/http, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/simulation, service/scheduler
 */

package controllers

import (
	"net/http"
	"strconv"

	"samra-service/service"
	"samra-service/service/models"
	"samra-service/service/simulation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// SimulationController 模拟控制器
type SimulationController struct {
	service *simulation.Service
	db      *gorm.DB
}

// NewSimulationController 创建模拟控制器实例
func NewSimulationController() *SimulationController {
	return &SimulationController{
		service: service.GlobalSimulationService,
		db:      service.DB,
	}
}

// RunSimulation 执行一批模拟
// @Summary 执行一批模拟
// @Description 对每个(情景,响应方案)组合独立编译绑定积分并按周持久化结果
// @Tags 模拟
// @Accept json
// @Produce json
// @Param request body simulation.RunRequest true "模拟请求"
// @Success 200 {object} APIResponse{data=simulation.RunSummary}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /simulations/run [post]
func (c *SimulationController) RunSimulation(w http.ResponseWriter, r *http.Request) {
	var req simulation.RunRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.ModelID <= 0 {
		render.JSON(w, r, BadRequestResponse("model_id 不能为空", nil))
		return
	}
	if len(req.ScenarioIDs) == 0 || len(req.ResponseOptionIDs) == 0 {
		render.JSON(w, r, BadRequestResponse("scenario_ids 和 response_option_ids 不能为空", nil))
		return
	}
	if !req.EndDate.After(req.StartDate) {
		render.JSON(w, r, BadRequestResponse("end_date 必须晚于 start_date", nil))
		return
	}

	summary, err := c.service.Run(r.Context(), req)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("执行模拟失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("执行模拟完成", summary))
}

// AggregateResults 聚合读取模拟结果
// @Summary 聚合读取模拟结果
// @Description 按变量自身或指定的聚合方式读取各(情景,响应方案)组合的序列与标量
// @Tags 模拟
// @Accept json
// @Produce json
// @Param request body simulation.AggregateRequest true "聚合请求"
// @Success 200 {object} APIResponse{data=simulation.AggregateResult}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /simulations/aggregate [post]
func (c *SimulationController) AggregateResults(w http.ResponseWriter, r *http.Request) {
	var req simulation.AggregateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.VariableID <= 0 {
		render.JSON(w, r, BadRequestResponse("variable_id 不能为空", nil))
		return
	}

	result, err := c.service.Aggregate(r.Context(), req)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("聚合读取失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("聚合读取成功", result))
}

// ListRuns 获取模拟运行记录
// @Summary 获取模拟运行记录
// @Tags 模拟
// @Produce json
// @Param model_id query int false "模型ID"
// @Param limit query int false "返回条数，默认50"
// @Success 200 {object} APIResponse{data=[]models.SimulationRun}
// @Failure 500 {object} APIResponse
// @Router /simulations/runs [get]
func (c *SimulationController) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	query := c.db.Order("created_at DESC").Limit(limit)
	if raw := r.URL.Query().Get("model_id"); raw != "" {
		modelID, err := strconv.Atoi(raw)
		if err != nil {
			render.JSON(w, r, BadRequestResponse("model_id 参数格式错误", err))
			return
		}
		query = query.Where("model_id = ?", modelID)
	}

	var runs []models.SimulationRun
	if err := query.Find(&runs).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("获取运行记录失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取运行记录成功", runs))
}

// AddRunConfig 创建定时运行配置
// @Summary 创建定时运行配置
// @Description 新配置在调度器重启后生效
// @Tags 模拟
// @Accept json
// @Produce json
// @Param request body models.SimulationRunConfig true "运行配置"
// @Success 200 {object} APIResponse{data=models.SimulationRunConfig}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /simulations/run-configs [post]
func (c *SimulationController) AddRunConfig(w http.ResponseWriter, r *http.Request) {
	var req models.SimulationRunConfig
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.ModelID <= 0 {
		render.JSON(w, r, BadRequestResponse("model_id 不能为空", nil))
		return
	}

	if err := c.db.Create(&req).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("创建运行配置失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建运行配置成功", req))
}

// ListRunConfigs 获取定时运行配置列表
// @Summary 获取定时运行配置列表
// @Tags 模拟
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.SimulationRunConfig}
// @Failure 500 {object} APIResponse
// @Router /simulations/run-configs [get]
func (c *SimulationController) ListRunConfigs(w http.ResponseWriter, r *http.Request) {
	var configs []models.SimulationRunConfig
	if err := c.db.Order("created_at DESC").Find(&configs).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("获取运行配置列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取运行配置列表成功", configs))
}

// DeleteRunConfig 删除定时运行配置
// @Summary 删除定时运行配置
// @Tags 模拟
// @Produce json
// @Param id path string true "配置ID"
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /simulations/run-configs/{id} [delete]
func (c *SimulationController) DeleteRunConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.db.Delete(&models.SimulationRunConfig{}, "id = ?", id).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("删除运行配置失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("删除运行配置成功", nil))
}
