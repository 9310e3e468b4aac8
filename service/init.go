/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、配置加载、全局服务装配
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务；
 *        数据库方言(postgres/sqlite)由配置结构体决定，核心层不探测环境
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs dev_docs/model.md
 */

package service

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"samra-service/logger"
	"samra-service/service/cleanup"
	"samra-service/service/config"
	"samra-service/service/database"
	"samra-service/service/distributed_lock"
	"samra-service/service/modelgraph"
	"samra-service/service/scheduler"
	"samra-service/service/simulation"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	DB                      *gorm.DB
	GlobalConfig            *config.RuntimeConfig
	GlobalModelGraphService *modelgraph.Service
	GlobalSimulationService *simulation.Service
	GlobalSchedulerService  *scheduler.SchedulerService
	GlobalRunCleanupService *cleanup.RunCleanupService
)

func init() {
	logger.InitLogger()
	GlobalConfig = config.Load()
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接，方言由运行时配置决定
func initDatabase() {
	var dialector gorm.Dialector

	switch GlobalConfig.DBDriver {
	case config.DBDriverSQLite:
		path := getEnvWithDefault("SQLITE_PATH", "samra.db")
		dialector = sqlite.Open(path)

	default:
		var dsn string
		// 优先使用DATABASE_URL环境变量
		if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
			dsn = databaseURL
		} else {
			// 使用分离的环境变量构建连接字符串
			host := getEnvWithDefault("DB_HOST", "localhost")
			port := getEnvWithDefault("DB_PORT", "5432")
			user := getEnvWithDefault("DB_USER", "postgres")
			password := getEnvWithDefault("DB_PASSWORD", "postgres")
			dbname := getEnvWithDefault("DB_NAME", "samra")
			sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
			schema := getEnvWithDefault("DB_SCHEMA", "public")

			dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=UTC",
				host, port, user, password, dbname, sslmode, schema)
		}
		dialector = postgres.Open(dsn)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}
}

// initServices 装配全局服务
func initServices() {
	var lock distributed_lock.DistributedLock
	if GlobalConfig.RedisEnabled {
		redisLock, err := distributed_lock.NewRedisLock()
		if err != nil {
			slog.Warn("Redis运行锁初始化失败，降级为无锁执行", "error", err)
		} else {
			lock = redisLock
			slog.Info("Redis运行锁已启用")
		}
	}

	GlobalModelGraphService = modelgraph.NewService(DB)
	GlobalSimulationService = simulation.NewService(DB, GlobalConfig, lock)
	GlobalSchedulerService = scheduler.NewSchedulerService(DB, GlobalConfig, GlobalSimulationService)

	if err := GlobalSchedulerService.Start(); err != nil {
		slog.Error("模拟调度器启动失败", "error", err)
	}

	GlobalRunCleanupService = cleanup.NewRunCleanupService(DB)
	if err := GlobalRunCleanupService.StartScheduledCleanup(); err != nil {
		slog.Error("运行记录清理服务启动失败", "error", err)
	}

	log.Println("服务初始化完成")
}
