package configs

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uidex/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OptionModel{}))
	return db
}

func TestGetCreatesAndPersistsDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop())

	cfg, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Evaluation.ChunkSize)
	assert.Equal(t, 1500, cfg.Evaluation.ChunkDelayMS)
	assert.Equal(t, 30, cfg.Quota.DailyLimit)

	// first Get writes the defaults row
	var opt models.OptionModel
	require.NoError(t, db.Where("name = ?", configKey).First(&opt).Error)
	assert.Contains(t, opt.Value, `"chunk_size":3`)
}

func TestPatchMergesSection(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop())

	updated, err := svc.Patch(map[string]json.RawMessage{
		"quota": json.RawMessage(`{"daily_limit":5}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quota.DailyLimit)
	// untouched sections keep their values
	assert.Equal(t, 3, updated.Evaluation.ChunkSize)
	assert.True(t, updated.Evaluation.Enable)

	// the merge is persisted, not just cached
	svc.Invalidate()
	cfg, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Quota.DailyLimit)
}
