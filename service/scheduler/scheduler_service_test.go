/*
 * @module service/scheduler/scheduler_service_test
 * @description 定时重算调度器测试
 * @architecture 测试层
 * @documentReference dev_docs/model.md
 * @stateFlow 配置写入 -> 启动调度器 -> 注册条目验证 -> 停止
 * @rules 覆盖配置加载、空cron回退全局默认、启停幂等
 * @dependencies testing, github.com/stretchr/testify/assert, samra-service/testutil
 * @refs scheduler_service.go
 */

package scheduler

import (
	"testing"
	"time"

	"samra-service/service/config"
	"samra-service/service/models"
	"samra-service/service/simulation"
	"samra-service/testutil"

	"github.com/stretchr/testify/assert"
)

func newTestScheduler(t *testing.T) (*SchedulerService, *testutil.TestDB) {
	testDB := testutil.NewTestDB()
	cfg := &config.RuntimeConfig{
		DefaultStepDays:    1,
		BaselineResponseID: 1,
		WeekAnchor:         time.Monday,
		SchedulerCron:      "0 0 2 * * *",
	}
	sim := simulation.NewService(testDB.DB, cfg, nil)
	return NewSchedulerService(testDB.DB, cfg, sim), testDB
}

func boolPtr(b bool) *bool { return &b }

// TestSchedulerStartRegistersEnabledConfigs 测试启动时只注册启用的配置
func TestSchedulerStartRegistersEnabledConfigs(t *testing.T) {
	s, testDB := newTestScheduler(t)
	defer testDB.Close()

	configs := []models.SimulationRunConfig{
		{Name: "nightly", ModelID: 1, ScenarioIDs: models.JSONBGenericArray{1},
			ResponseOptionIDs: models.JSONBGenericArray{1}, HorizonDays: 365,
			StepDays: 1, IsEnabled: boolPtr(true)},
		{Name: "custom_cron", ModelID: 1, ScenarioIDs: models.JSONBGenericArray{1},
			ResponseOptionIDs: models.JSONBGenericArray{1}, HorizonDays: 30,
			StepDays: 1, CronExpression: "0 30 3 * * *", IsEnabled: boolPtr(true)},
		{Name: "disabled", ModelID: 1, ScenarioIDs: models.JSONBGenericArray{1},
			ResponseOptionIDs: models.JSONBGenericArray{1}, HorizonDays: 30,
			StepDays: 1, IsEnabled: boolPtr(false)},
	}
	for i := range configs {
		assert.NoError(t, testDB.DB.Create(&configs[i]).Error)
	}

	assert.NoError(t, s.Start())
	defer s.Stop()
	assert.Equal(t, 2, s.Entries())

	// 重复启动报错
	assert.Error(t, s.Start())
}

// TestRunConfigDisabledPersists 测试显式禁用的配置不被默认值覆盖
func TestRunConfigDisabledPersists(t *testing.T) {
	_, testDB := newTestScheduler(t)
	defer testDB.Close()

	cfg := models.SimulationRunConfig{
		Name: "paused", ModelID: 1, ScenarioIDs: models.JSONBGenericArray{1},
		ResponseOptionIDs: models.JSONBGenericArray{1}, HorizonDays: 30,
		StepDays: 1, IsEnabled: boolPtr(false),
	}
	assert.NoError(t, testDB.DB.Create(&cfg).Error)

	var stored models.SimulationRunConfig
	assert.NoError(t, testDB.DB.First(&stored, "id = ?", cfg.ID).Error)
	if assert.NotNil(t, stored.IsEnabled) {
		assert.False(t, *stored.IsEnabled)
	}

	// 未显式指定时落库为默认启用
	defaulted := models.SimulationRunConfig{
		Name: "defaulted", ModelID: 1, ScenarioIDs: models.JSONBGenericArray{1},
		ResponseOptionIDs: models.JSONBGenericArray{1}, HorizonDays: 30,
		StepDays: 1,
	}
	assert.NoError(t, testDB.DB.Create(&defaulted).Error)

	var storedDefault models.SimulationRunConfig
	assert.NoError(t, testDB.DB.First(&storedDefault, "id = ?", defaulted.ID).Error)
	if assert.NotNil(t, storedDefault.IsEnabled) {
		assert.True(t, *storedDefault.IsEnabled)
	}
}

// TestSchedulerStartEmpty 测试无配置时正常启动
func TestSchedulerStartEmpty(t *testing.T) {
	s, testDB := newTestScheduler(t)
	defer testDB.Close()

	assert.NoError(t, s.Start())
	assert.Equal(t, 0, s.Entries())
	s.Stop()
	// 重复停止无害
	s.Stop()
}

// TestToIntSlice 测试JSONB数组的整型还原
func TestToIntSlice(t *testing.T) {
	// JSON 反序列化数字落地为 float64
	raw := models.JSONBGenericArray{float64(1), float64(5), 7}
	assert.Equal(t, []int{1, 5, 7}, toIntSlice(raw))
	assert.Empty(t, toIntSlice(nil))
}
