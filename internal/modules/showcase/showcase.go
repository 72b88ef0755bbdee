package showcase

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uidex/core/internal/middleware"
	"github.com/uidex/core/internal/models"
	"github.com/uidex/core/internal/modules/search"
	"github.com/uidex/core/internal/pkg/pagination"
	"github.com/uidex/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service reads and administers persisted showcases. The evaluation pipeline
// is the only writer of new rows; this service only flips approval and
// deletes.
type Service struct {
	db     *gorm.DB
	search *search.Service
	logger *zap.Logger
}

func NewService(db *gorm.DB, searchSvc *search.Service, logger *zap.Logger) *Service {
	return &Service{db: db, search: searchSvc, logger: logger.Named("showcase")}
}

// ListFilter narrows List results; zero values mean "no filter".
type ListFilter struct {
	OwnerID  string
	UIType   string
	Approved *bool
}

func (s *Service) List(q pagination.Query, filter ListFilter) ([]models.ShowcaseModel, response.Pagination, error) {
	tx := s.db.Model(&models.ShowcaseModel{}).Order("created_at DESC")
	if filter.OwnerID != "" {
		tx = tx.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.UIType != "" {
		tx = tx.Where("ui_type = ?", filter.UIType)
	}
	if filter.Approved != nil {
		tx = tx.Where("approved = ?", *filter.Approved)
	}

	var rows []models.ShowcaseModel
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}

func (s *Service) GetByID(id string) (*models.ShowcaseModel, error) {
	var row models.ShowcaseModel
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SetApproved flips the admin approval flag. This is the only mutation the
// system performs on a persisted showcase.
func (s *Service) SetApproved(id string, approved bool) (*models.ShowcaseModel, error) {
	row, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(row).Update("approved", approved).Error; err != nil {
		return nil, err
	}
	row.Approved = approved
	if err := s.search.IndexShowcase(row); err != nil {
		s.logger.Warn("search upsert after approval failed",
			zap.String("id", id), zap.Error(err))
	}
	return row, nil
}

func (s *Service) Delete(id string) error {
	result := s.db.Delete(&models.ShowcaseModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.search.DeleteDocument(id)
	return nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/showcases")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/review", h.reviewHTML)
	g.PATCH("/:id/approve", authMW, h.approve)
	g.DELETE("/:id", authMW, h.delete)
}

func (h *Handler) list(c *gin.Context) {
	filter := ListFilter{
		UIType:  strings.TrimSpace(c.Query("uiType")),
		OwnerID: strings.TrimSpace(c.Query("ownerId")),
	}
	switch c.Query("approved") {
	case "true":
		v := true
		filter.Approved = &v
	case "false":
		v := false
		filter.Approved = &v
	}
	// unauthenticated listing only sees approved showcases
	if !middleware.IsAuthenticated(c) {
		v := true
		filter.Approved = &v
	}

	rows, pag, err := h.svc.List(pagination.FromContext(c), filter)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, pag)
}

func (h *Handler) get(c *gin.Context) {
	row, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, row)
}

// reviewHTML renders the stored review markdown as a standalone HTML page.
func (h *Handler) reviewHTML(c *gin.Context) {
	row, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	title := row.ProjectName
	if title == "" {
		title = row.UIType
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(200, renderReviewPage(title, row))
}

type approveDTO struct {
	Approved *bool `json:"approved" binding:"required"`
}

func (h *Handler) approve(c *gin.Context) {
	var dto approveDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "approved is required")
		return
	}
	row, err := h.svc.SetApproved(c.Param("id"), *dto.Approved)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
