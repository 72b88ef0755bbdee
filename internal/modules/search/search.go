package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/uidex/core/internal/models"
	"github.com/uidex/core/internal/modules/configs"
	"github.com/uidex/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Document is the search index projection of a showcase row. Scores stay on
// the stored 0-10 scale so range filters line up with the database columns.
type Document struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Content            string   `json:"content"`
	UIType             string   `json:"uiType"`
	Tags               []string `json:"tags"`
	ScoreAesthetic     *float64 `json:"scoreAesthetic,omitempty"`
	ScoreUsability     *float64 `json:"scoreUsability,omitempty"`
	ScoreAlignment     *float64 `json:"scoreAlignment,omitempty"`
	ScoreAccessibility *float64 `json:"scoreAccessibility,omitempty"`
	ScoreConsistency   *float64 `json:"scoreConsistency,omitempty"`
	CreatedAt          int64    `json:"createdAt"`
}

var (
	searchableAttributes = []string{"title", "description", "content", "uiType", "tags"}
	filterableAttributes = []string{
		"uiType", "tags", "createdAt",
		"scoreAesthetic", "scoreUsability", "scoreAlignment", "scoreAccessibility", "scoreConsistency",
	}
	sortableAttributes = []string{
		"createdAt",
		"scoreAesthetic", "scoreUsability", "scoreAlignment", "scoreAccessibility", "scoreConsistency",
	}
)

// Service handles search indexing and querying for showcases.
type Service struct {
	db     *gorm.DB
	cfgSvc *configs.Service
	logger *zap.Logger

	// mu guards meili: the persist loop, HTTP handlers and the reindex cron
	// all ensure the client concurrently.
	mu    sync.Mutex
	meili *meiliClient
}

func NewService(db *gorm.DB, cfgSvc *configs.Service, logger *zap.Logger) *Service {
	return &Service{db: db, cfgSvc: cfgSvc, logger: logger.Named("search")}
}

func (s *Service) ensureClient() (*meiliClient, error) {
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return nil, err
	}

	opts := cfg.MeiliSearch
	host := strings.TrimSpace(opts.Host)
	apiKey := strings.TrimSpace(opts.APIKey)
	indexName := strings.TrimSpace(opts.IndexName)

	if !opts.Enable {
		return nil, fmt.Errorf("MeiliSearch is disabled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meili == nil || s.meili.host != host || s.meili.apiKey != apiKey || s.meili.indexName != indexName {
		s.meili = newMeiliClient(host, apiKey, indexName)
		if err := s.meili.UpdateSettings(indexSettings{
			SearchableAttributes: searchableAttributes,
			FilterableAttributes: filterableAttributes,
			SortableAttributes:   sortableAttributes,
		}); err != nil {
			s.logger.Warn("failed to push index settings", zap.Error(err))
		}
	}
	return s.meili, nil
}

// Search queries MeiliSearch, with MySQL LIKE fallback when the index is
// disabled or unreachable.
func (s *Service) Search(q, uiType string, limit int) ([]Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if client, err := s.ensureClient(); err == nil {
		var filter string
		if uiType != "" {
			filter = fmt.Sprintf("uiType = %q", uiType)
		}
		if results, err := client.Search(q, filter, limit); err == nil {
			return results, nil
		} else {
			s.logger.Warn("meili search failed, falling back to mysql", zap.Error(err))
		}
	}
	return s.mysqlSearch(q, uiType, limit)
}

func (s *Service) mysqlSearch(q, uiType string, limit int) ([]Document, error) {
	like := "%" + q + "%"
	tx := s.db.Model(&models.ShowcaseModel{}).
		Where("project_name LIKE ? OR structure_note LIKE ? OR review_text LIKE ? OR ui_type LIKE ?",
			like, like, like, like)
	if uiType != "" {
		tx = tx.Where("ui_type = ?", uiType)
	}

	var rows []models.ShowcaseModel
	if err := tx.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]Document, 0, len(rows))
	for i := range rows {
		results = append(results, documentFromShowcase(&rows[i]))
	}
	return results, nil
}

// IndexAll rebuilds the full index from the database.
func (s *Service) IndexAll() error {
	client, err := s.ensureClient()
	if err != nil {
		return err
	}

	var rows []models.ShowcaseModel
	if err := s.db.Find(&rows).Error; err != nil {
		return err
	}

	docs := make([]Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, documentFromShowcase(&rows[i]))
	}
	return client.AddDocuments(docs)
}

// IndexShowcase upserts one showcase into the index. Failure here is soft:
// the row is already in MySQL and the nightly reindex will catch up.
func (s *Service) IndexShowcase(row *models.ShowcaseModel) error {
	client, err := s.ensureClient()
	if err != nil {
		return err
	}
	return client.AddDocuments([]Document{documentFromShowcase(row)})
}

// DeleteDocument removes a showcase from the index (call after delete).
func (s *Service) DeleteDocument(id string) {
	if client, err := s.ensureClient(); err == nil {
		if err := client.DeleteDocument(id); err != nil {
			s.logger.Warn("failed to delete search document",
				zap.String("id", id), zap.Error(err))
		}
	}
}

func documentFromShowcase(row *models.ShowcaseModel) Document {
	return Document{
		ID:                 row.ID,
		Title:              row.ProjectName,
		Description:        row.StructureNote,
		Content:            row.ReviewText,
		UIType:             row.UIType,
		Tags:               row.Tags,
		ScoreAesthetic:     row.ScoreAesthetic,
		ScoreUsability:     row.ScoreUsability,
		ScoreAlignment:     row.ScoreAlignment,
		ScoreAccessibility: row.ScoreAccessibility,
		ScoreConsistency:   row.ScoreConsistency,
		CreatedAt:          row.CreatedAt.UnixMilli(),
	}
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/search")
	g.GET("", h.search)
	g.POST("/reindex", authMW, h.reindex)
}

func (h *Handler) search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.BadRequest(c, "q is required")
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			limit = i
		}
	}

	results, err := h.svc.Search(q, c.Query("uiType"), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if results == nil {
		results = []Document{}
	}
	response.OK(c, gin.H{"data": results, "query": q})
}

func (h *Handler) reindex(c *gin.Context) {
	go func() {
		if err := h.svc.IndexAll(); err != nil {
			h.svc.logger.Warn("reindex failed", zap.Error(err))
		}
	}()
	response.OK(c, gin.H{"message": "indexing started"})
}
