/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package api

import (
	"samra-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 模型管理
	modelController := controllers.NewModelController()
	r.Route("/models", func(r chi.Router) {
		r.Post("/", modelController.AddModel)
		r.Get("/", modelController.ListModels)
		r.Get("/{id}", modelController.GetModel)
	})

	// 变量管理（含外部数据点批量替换）
	dataPointController := controllers.NewDataPointController()
	r.Route("/variables", func(r chi.Router) {
		r.Post("/", modelController.AddVariable)
		r.Put("/", modelController.UpdateVariable)
		r.Get("/", modelController.ListVariables)
		r.Delete("/{id}", modelController.DeleteVariable)

		r.Put("/{variable_id}/measured-points", dataPointController.ReplaceMeasuredPoints)
		r.Put("/{variable_id}/seasonal-points", dataPointController.ReplaceSeasonalPoints)
		r.Put("/{variable_id}/forecasted-points", dataPointController.ReplaceForecastedPoints)
	})

	// 外部数据来源管理
	r.Route("/sources", func(r chi.Router) {
		r.Post("/", dataPointController.AddSource)
		r.Get("/", dataPointController.ListSources)
	})

	// 变量连接管理
	r.Route("/connections", func(r chi.Router) {
		r.Post("/", modelController.AddConnection)
		r.Get("/", modelController.ListConnections)
		r.Delete("/{id}", modelController.DeleteConnection)
	})

	// 情景与响应方案
	constantController := controllers.NewConstantController()
	r.Route("/scenarios", func(r chi.Router) {
		r.Post("/", constantController.AddScenario)
		r.Get("/", constantController.ListScenarios)
	})
	r.Route("/response-options", func(r chi.Router) {
		r.Post("/", constantController.AddResponseOption)
		r.Get("/", constantController.ListResponseOptions)
	})

	// 常量分层取值
	r.Route("/constant-values", func(r chi.Router) {
		r.Post("/household", constantController.SetHouseholdValue)
		r.Post("/scenario", constantController.SetScenarioValue)
		r.Post("/response", constantController.SetResponseValue)
		r.Post("/pulse", constantController.SetPulseValue)
		r.Get("/{variable_id}", constantController.ListConstantValues)
	})

	// 模拟执行与结果读取
	simulationController := controllers.NewSimulationController()
	r.Route("/simulations", func(r chi.Router) {
		r.Post("/run", simulationController.RunSimulation)
		r.Post("/aggregate", simulationController.AggregateResults)
		r.Get("/runs", simulationController.ListRuns)

		r.Route("/run-configs", func(r chi.Router) {
			r.Post("/", simulationController.AddRunConfig)
			r.Get("/", simulationController.ListRunConfigs)
			r.Delete("/{id}", simulationController.DeleteRunConfig)
		})
	})

	// 元数据管理
	r.Route("/meta", func(r chi.Router) {
		metaController := controllers.NewMetaController()
		r.Get("/variable-kinds", metaController.GetVariableKinds)
		r.Get("/aggregate-modes", metaController.GetAggregateModes)
		r.Get("/equation-functions", metaController.GetEquationFunctions)
	})
}
