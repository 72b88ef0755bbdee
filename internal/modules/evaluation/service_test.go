package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appcfg "github.com/uidex/core/internal/config"
	"github.com/uidex/core/internal/models"
	"github.com/uidex/core/internal/modules/configs"
	"github.com/uidex/core/internal/modules/quota"
	"github.com/uidex/core/internal/modules/search"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OptionModel{}, &models.ShowcaseModel{}))
	return db
}

func seedConfig(t *testing.T, db *gorm.DB, cfg appcfg.FullConfig) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.OptionModel{Name: "configs", Value: string(data)}).Error)
}

// fakeModelServer answers chat-completions with a fixed review JSON and
// counts invocations.
func fakeModelServer(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var calls int64
	review := `{"ui_type":"dashboard","structure_note":"Sidebar plus metric cards.","review_text":"Clear hierarchy, readable charts.","tags":["clean","data-heavy"],"scores":{"aesthetic":8.5,"usability":8,"alignment":9,"accessibility":7,"consistency":8}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": review}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// fakeMeiliServer accepts settings pushes and counts uploaded documents;
// docStatus controls the documents endpoint response code.
func fakeMeiliServer(t *testing.T, docStatus int) (*httptest.Server, *int64) {
	t.Helper()
	var docs int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/settings"):
			w.WriteHeader(http.StatusAccepted)
		case strings.HasSuffix(r.URL.Path, "/documents") && r.Method == http.MethodPost:
			var batch []search.Document
			json.NewDecoder(r.Body).Decode(&batch)
			atomic.AddInt64(&docs, int64(len(batch)))
			if docStatus >= 400 {
				http.Error(w, `{"message":"index write failed"}`, docStatus)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusAccepted)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &docs
}

func pipelineConfig(modelURL, meiliURL string, dailyLimit int) appcfg.FullConfig {
	cfg := appcfg.DefaultFullConfig()
	cfg.AI.Providers = []appcfg.AIProvider{{
		ID:           "compat-1",
		Name:         "compat",
		Type:         "OpenAI-Compatible",
		APIKey:       "sk-proj-live-key",
		Endpoint:     modelURL,
		DefaultModel: "vision-x",
		Enabled:      true,
	}}
	cfg.Evaluation.ChunkDelayMS = 1
	cfg.Evaluation.ItemTimeoutSeconds = 5
	cfg.Quota.DailyLimit = dailyLimit
	cfg.MeiliSearch.Enable = true
	cfg.MeiliSearch.Host = meiliURL
	return cfg
}

func newPipelineService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	logger := zap.NewNop()
	cfgSvc := configs.NewService(db, logger)
	return NewService(
		db,
		cfgSvc,
		quota.NewGuard(db, cfgSvc, logger),
		search.NewService(db, cfgSvc, logger),
		nil,
		nil,
		logger,
	)
}

func TestSubmitBatchPersistsAndIndexes(t *testing.T) {
	model, modelCalls := fakeModelServer(t)
	meili, meiliDocs := fakeMeiliServer(t, http.StatusAccepted)
	db := newTestDB(t)
	seedConfig(t, db, pipelineConfig(model.URL, meili.URL, 30))
	svc := newPipelineService(t, db)

	summary, err := svc.SubmitBatch(context.Background(), "owner-1", BatchRequest{
		ProjectName: "Atlas Analytics",
		ImageURLs:   []string{"https://img.example.com/a.png", "https://img.example.com/b.png"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalImages)
	assert.Equal(t, 2, summary.SavedCount)
	assert.Equal(t, 2, summary.Details.Evaluation.Success)
	assert.Equal(t, 0, summary.Details.Evaluation.Failed)
	assert.Equal(t, 2, summary.Details.Save.Success)
	assert.Empty(t, summary.Warnings)
	assert.Len(t, summary.SavedIDs, 2)

	assert.EqualValues(t, 2, *modelCalls)
	assert.EqualValues(t, 2, *meiliDocs)

	var rows []models.ShowcaseModel
	require.NoError(t, db.Order("created_at").Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "owner-1", row.OwnerID)
		assert.Equal(t, "dashboard", row.UIType)
		assert.Equal(t, string(ParseModeJSON), row.ParseMode)
		require.NotNil(t, row.ScoreAesthetic)
		assert.InDelta(t, 8.5, *row.ScoreAesthetic, 0.001)
	}
}

func TestSubmitBatchIndexFailureIsSoft(t *testing.T) {
	model, _ := fakeModelServer(t)
	meili, _ := fakeMeiliServer(t, http.StatusInternalServerError)
	db := newTestDB(t)
	seedConfig(t, db, pipelineConfig(model.URL, meili.URL, 30))
	svc := newPipelineService(t, db)

	summary, err := svc.SubmitBatch(context.Background(), "owner-1", BatchRequest{
		ProjectName: "Atlas Analytics",
		ImageURLs:   []string{"https://img.example.com/a.png"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.SavedCount)
	assert.Equal(t, 1, summary.Details.Save.Success)
	assert.Equal(t, 0, summary.Details.Save.Failed)
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0], "saved but not indexed")

	// the row exists despite the index failure
	var count int64
	require.NoError(t, db.Model(&models.ShowcaseModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitBatchQuotaRejectsWholeBatch(t *testing.T) {
	model, modelCalls := fakeModelServer(t)
	meili, _ := fakeMeiliServer(t, http.StatusAccepted)
	db := newTestDB(t)
	seedConfig(t, db, pipelineConfig(model.URL, meili.URL, 3))
	svc := newPipelineService(t, db)

	// one evaluation already used today: remaining=2, batch of 5 must be
	// rejected outright with zero writes
	require.NoError(t, db.Create(&models.ShowcaseModel{
		OwnerID: "owner-1", ImageRef: "https://img.example.com/old.png",
		UIType: "other", StructureNote: "n", ReviewText: "r",
	}).Error)

	_, err := svc.SubmitBatch(context.Background(), "owner-1", BatchRequest{
		ProjectName: "Atlas Analytics",
		ImageURLs: []string{
			"https://img.example.com/1.png", "https://img.example.com/2.png",
			"https://img.example.com/3.png", "https://img.example.com/4.png",
			"https://img.example.com/5.png",
		},
	})

	var quotaErr *quota.ExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 3, quotaErr.Limit)
	assert.Equal(t, 1, quotaErr.Used)
	assert.Equal(t, 5, quotaErr.Requested)

	assert.EqualValues(t, 0, *modelCalls)
	var count int64
	require.NoError(t, db.Model(&models.ShowcaseModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "no new rows may be written")
}

func TestBatchDedupKey(t *testing.T) {
	req := BatchRequest{ProjectName: "Atlas", ImageURLs: []string{"https://img.example.com/a.png"}}

	assert.Equal(t, batchDedupKey("owner-1", req), batchDedupKey("owner-1", req))
	assert.NotEqual(t, batchDedupKey("owner-1", req), batchDedupKey("owner-2", req))

	other := req
	other.ImageURLs = []string{"https://img.example.com/b.png"}
	assert.NotEqual(t, batchDedupKey("owner-1", req), batchDedupKey("owner-1", other))
}
