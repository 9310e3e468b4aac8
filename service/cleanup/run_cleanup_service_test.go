/*
 * @module service/cleanup/run_cleanup_service_test
 * @description 运行记录清理服务单元测试
 * @architecture 测试层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 构造过期与未过期运行记录 -> 执行清理 -> 校验删除范围
 * @rules 使用内存sqlite，不依赖外部数据库
 * @dependencies github.com/stretchr/testify
 * @refs service/cleanup/run_cleanup_service.go
 */

package cleanup

import (
	"context"
	"testing"
	"time"

	"samra-service/service/models"
	"samra-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRunAt(t *testing.T, db *testutil.TestDB, id string, createdAt time.Time) {
	run := &models.SimulationRun{
		ID:               id,
		ModelID:          1,
		ScenarioID:       1,
		ResponseOptionID: 1,
		Status:           models.SimulationRunStatusSuccess,
		CreatedAt:        createdAt,
	}
	require.NoError(t, db.DB.Create(run).Error)
}

func TestCleanupExpiredRuns(t *testing.T) {
	db := testutil.NewTestDB()
	defer db.Close()

	now := time.Now()
	createRunAt(t, db, "expired-1", now.AddDate(0, 0, -120))
	createRunAt(t, db, "expired-2", now.AddDate(0, 0, -91))
	createRunAt(t, db, "recent-1", now.AddDate(0, 0, -30))
	createRunAt(t, db, "recent-2", now)

	svc := NewRunCleanupService(db.DB)
	deleted, err := svc.CleanupExpiredRuns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []models.SimulationRun
	require.NoError(t, db.DB.Order("created_at").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, "recent-1", remaining[0].ID)
	assert.Equal(t, "recent-2", remaining[1].ID)
}

func TestCleanupRetentionOverride(t *testing.T) {
	t.Setenv("RUN_RETENTION_DAYS", "10")

	db := testutil.NewTestDB()
	defer db.Close()

	now := time.Now()
	createRunAt(t, db, "old", now.AddDate(0, 0, -11))
	createRunAt(t, db, "fresh", now.AddDate(0, 0, -5))

	svc := NewRunCleanupService(db.DB)
	assert.Equal(t, 10, svc.retentionDays)

	deleted, err := svc.CleanupExpiredRuns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestScheduledCleanupLifecycle(t *testing.T) {
	db := testutil.NewTestDB()
	defer db.Close()

	svc := NewRunCleanupService(db.DB)
	require.NoError(t, svc.StartScheduledCleanup())
	assert.Error(t, svc.StartScheduledCleanup())

	svc.StopScheduledCleanup()
	svc.StopScheduledCleanup()
}
