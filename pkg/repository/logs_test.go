package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

func TestCacheInstruction_Pending(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		ci := env.repos.CacheInstructions
		old := time.Now().Add(-48 * time.Hour)

		batches := []*models.CacheInstruction{
			{UtcStamp: old, Instructions: json.RawMessage(`[{"type":"refresh-all"}]`), OriginIdentity: "web-1"},
			{UtcStamp: old, Instructions: json.RawMessage(`[{},{}]`), OriginIdentity: "web-1", InstructionCount: 2},
			{Instructions: json.RawMessage(`[{},{},{}]`), OriginIdentity: "web-2", InstructionCount: 3},
		}
		for _, b := range batches {
			require.NoError(t, ci.Add(s, b))
			assert.NotZero(t, b.ID)
		}

		n, err := ci.Count(s)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		pending, err := ci.CountPending(s, batches[0].ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), pending)

		maxID, err := ci.MaxID(s)
		require.NoError(t, err)
		assert.Equal(t, batches[2].ID, maxID)

		items, err := ci.GetPending(s, batches[0].ID, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, batches[1].ID, items[0].ID)
		assert.JSONEq(t, `[{},{}]`, string(items[0].Instructions))

		deleted, err := ci.DeleteOlderThan(s, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		ok, err := ci.Exists(s, batches[0].ID)
		require.NoError(t, err)
		assert.False(t, ok)

		deleted, err = ci.DeleteOlderThan(s, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, deleted, "the newest batch is kept")
		ok, err = ci.Exists(s, maxID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCacheInstruction_Empty(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		maxID, err := env.repos.CacheInstructions.MaxID(s)
		require.NoError(t, err)
		assert.Zero(t, maxID)

		pending, err := env.repos.CacheInstructions.CountPending(s, 0)
		require.NoError(t, err)
		assert.Zero(t, pending)
	})
}

func TestAudit_Paging(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		audit := env.repos.Audit
		base := time.Now().Add(-time.Hour)
		entries := []struct {
			entity int
			typ    models.AuditType
		}{
			{1, models.AuditNew}, {1, models.AuditSave}, {1, models.AuditPublish},
			{2, models.AuditNew}, {2, models.AuditSave},
		}
		for i, e := range entries {
			require.NoError(t, audit.Add(s, &models.AuditItem{
				EntityID:   e.entity,
				UserID:     -1,
				EntityType: "Document",
				AuditType:  e.typ,
				Comment:    "entry " + itoa(i),
				Parameters: map[string]string{"index": itoa(i)},
				CreateDate: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		first, err := audit.Get(s, query.New().Where(query.Eq("entityId", 1)))
		require.NoError(t, err)
		require.Len(t, first, 3)
		assert.Equal(t, models.AuditNew, first[0].AuditType)
		assert.Equal(t, "0", first[0].Parameters["index"])

		page, total, err := audit.GetPaged(s, nil, 0, 2, query.Descending, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 2)
		assert.Equal(t, "entry 4", page[0].Comment)

		saves, total, err := audit.GetPaged(s, nil, 0, 10, query.Ascending,
			[]models.AuditType{models.AuditSave, models.AuditPublish},
			query.New().Where(query.Eq("entityId", 1)))
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, models.AuditSave, saves[0].AuditType)

		_, _, err = audit.GetPaged(s, nil, 0, 0, query.Ascending, nil, nil)
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
		assert.ErrorIs(t, audit.Add(s, &models.AuditItem{EntityID: 1}), models.ErrInvalidOperation)

		deleted, err := audit.CleanLogs(s, 57*time.Minute+30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
	})
}

func TestLongRunningOperation_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		ops := env.repos.LongRunningOperations

		op := &models.LongRunningOperation{Type: "rebuild-index", ExpirationDate: time.Now().Add(time.Hour)}
		require.NoError(t, ops.Create(s, op))
		assert.Equal(t, models.OperationEnqueued, op.Status)

		require.NoError(t, ops.UpdateStatus(s, op.Key, models.OperationRunning, time.Time{}))
		status, ok, err := ops.GetStatus(s, op.Key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.OperationRunning, status)

		require.NoError(t, ops.SetResult(s, op.Key, map[string]int{"indexed": 42}))
		require.NoError(t, ops.UpdateStatus(s, op.Key, models.OperationSuccess, time.Time{}))

		var result map[string]int
		ok, err = ops.GetResult(s, op.Key, &result)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 42, result["indexed"])

		got, err := ops.Get(s, op.Key)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.OperationSuccess, got.Status)

		missing := op.Key
		missing[0] ^= 0xff
		_, ok, err = ops.GetStatus(s, missing)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, ops.UpdateStatus(s, missing, models.OperationFailed, time.Time{}), models.ErrNotFound)

		assert.ErrorIs(t, ops.Create(s, &models.LongRunningOperation{}), models.ErrInvalidOperation)
	})
}

func TestLongRunningOperation_ExpiryAndQueries(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		ops := env.repos.LongRunningOperations

		expired := &models.LongRunningOperation{Type: "import", Status: models.OperationRunning, ExpirationDate: time.Now().Add(-time.Minute)}
		queued := &models.LongRunningOperation{Type: "import", ExpirationDate: time.Now().Add(time.Hour)}
		other := &models.LongRunningOperation{Type: "export"}
		for _, op := range []*models.LongRunningOperation{expired, queued, other} {
			require.NoError(t, ops.Create(s, op))
		}

		status, _, err := ops.GetStatus(s, expired.Key)
		require.NoError(t, err)
		assert.Equal(t, models.OperationFailed, status, "an unfinished operation past its expiry reads as failed")

		items, total, err := ops.GetByType(s, "import", nil, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, items, 2)
		assert.Equal(t, models.OperationFailed, items[0].Status)

		items, total, err = ops.GetByType(s, "import", []models.OperationStatus{models.OperationEnqueued}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, queued.Key, items[0].Key)

		items, total, err = ops.GetByType(s, "import", nil, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Empty(t, items)

		_, _, err = ops.GetByType(s, "import", nil, -1, 1)
		assert.ErrorIs(t, err, models.ErrInvalidOperation)

		deleted, err := ops.CleanOperations(s, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
	})
}
