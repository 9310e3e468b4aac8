/*
 * @module api/controllers/datapoint_controller
 * @description 外部数据点控制器，提供实测/季节性/预测数据的批量替换接口
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 请求接收 -> 单事务先删后插 -> 响应返回
 * @rules 数据刷新是整体替换语义，同一(变量,来源,地理范围)的旧数据全部清除
 * @dependencies net/http, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/modelgraph/datapoint_service.go
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

// DataPointController 外部数据点控制器
type DataPointController struct {
	service *modelgraph.Service
}

// NewDataPointController 创建数据点控制器实例
func NewDataPointController() *DataPointController {
	return &DataPointController{
		service: service.GlobalModelGraphService,
	}
}

// ReplaceMeasuredRequest 实测数据替换请求
type ReplaceMeasuredRequest struct {
	SourceID *int                      `json:"source_id"`
	Country  string                    `json:"country"`
	Region   string                    `json:"region"`
	Locality string                    `json:"locality"`
	Points   []models.MeasuredDataPoint `json:"points"`
}

// ReplaceSeasonalRequest 季节性数据替换请求
type ReplaceSeasonalRequest struct {
	Country  string                           `json:"country"`
	Region   string                           `json:"region"`
	Locality string                           `json:"locality"`
	Points   []models.SeasonalInputDataPoint  `json:"points"`
}

// ReplaceForecastedRequest 预测数据替换请求
type ReplaceForecastedRequest struct {
	Country  string                        `json:"country"`
	Region   string                        `json:"region"`
	Locality string                        `json:"locality"`
	Points   []models.ForecastedDataPoint  `json:"points"`
}

// ReplaceMeasuredPoints 批量替换实测数据点
// @Summary 批量替换实测数据点
// @Description 按(变量,来源,地理范围)先删后插，单事务完成
// @Tags 外部数据
// @Accept json
// @Produce json
// @Param variable_id path int true "变量ID"
// @Param request body ReplaceMeasuredRequest true "替换请求"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /variables/{variable_id}/measured-points [put]
func (c *DataPointController) ReplaceMeasuredPoints(w http.ResponseWriter, r *http.Request) {
	variableID, err := strconv.Atoi(chi.URLParam(r, "variable_id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("variable_id 参数格式错误", err))
		return
	}

	var req ReplaceMeasuredRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	if err := c.service.ReplaceMeasuredPoints(variableID, req.SourceID,
		req.Country, req.Region, req.Locality, req.Points); err != nil {
		render.JSON(w, r, InternalErrorResponse("替换实测数据点失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("替换实测数据点成功", map[string]int{"count": len(req.Points)}))
}

// ReplaceSeasonalPoints 批量替换季节性数据点
// @Summary 批量替换季节性数据点
// @Tags 外部数据
// @Accept json
// @Produce json
// @Param variable_id path int true "变量ID"
// @Param request body ReplaceSeasonalRequest true "替换请求"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /variables/{variable_id}/seasonal-points [put]
func (c *DataPointController) ReplaceSeasonalPoints(w http.ResponseWriter, r *http.Request) {
	variableID, err := strconv.Atoi(chi.URLParam(r, "variable_id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("variable_id 参数格式错误", err))
		return
	}

	var req ReplaceSeasonalRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	if err := c.service.ReplaceSeasonalPoints(variableID,
		req.Country, req.Region, req.Locality, req.Points); err != nil {
		render.JSON(w, r, InternalErrorResponse("替换季节性数据点失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("替换季节性数据点成功", map[string]int{"count": len(req.Points)}))
}

// ReplaceForecastedPoints 批量替换预测数据点
// @Summary 批量替换预测数据点
// @Tags 外部数据
// @Accept json
// @Produce json
// @Param variable_id path int true "变量ID"
// @Param request body ReplaceForecastedRequest true "替换请求"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /variables/{variable_id}/forecasted-points [put]
func (c *DataPointController) ReplaceForecastedPoints(w http.ResponseWriter, r *http.Request) {
	variableID, err := strconv.Atoi(chi.URLParam(r, "variable_id"))
	if err != nil {
		render.JSON(w, r, BadRequestResponse("variable_id 参数格式错误", err))
		return
	}

	var req ReplaceForecastedRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	if err := c.service.ReplaceForecastedPoints(variableID,
		req.Country, req.Region, req.Locality, req.Points); err != nil {
		render.JSON(w, r, InternalErrorResponse("替换预测数据点失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("替换预测数据点成功", map[string]int{"count": len(req.Points)}))
}

// AddSource 创建数据来源
// @Summary 创建数据来源
// @Tags 外部数据
// @Accept json
// @Produce json
// @Param source body models.Source true "数据来源"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /sources [post]
func (c *DataPointController) AddSource(w http.ResponseWriter, r *http.Request) {
	var source models.Source
	if err := render.DecodeJSON(r.Body, &source); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if source.Name == "" {
		render.JSON(w, r, BadRequestResponse("数据来源名称不能为空", nil))
		return
	}

	if err := c.service.CreateSource(&source); err != nil {
		render.JSON(w, r, InternalErrorResponse("创建数据来源失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建数据来源成功", source))
}

// ListSources 获取数据来源列表
// @Summary 获取数据来源列表
// @Tags 外部数据
// @Produce json
// @Success 200 {object} APIResponse
// @Router /sources [get]
func (c *DataPointController) ListSources(w http.ResponseWriter, r *http.Request) {
	list, err := c.service.ListSources()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取数据来源列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取数据来源列表成功", list))
}
