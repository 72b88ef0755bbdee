package evaluation

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/uidex/core/internal/middleware"
	"github.com/uidex/core/internal/modules/quota"
	"github.com/uidex/core/internal/pkg/response"
)

const maxBatchImages = 50

type Handler struct {
	svc   *Service
	guard *quota.Guard
}

func NewHandler(svc *Service, guard *quota.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/evaluations")
	g.POST("/batch", authMW, h.submitBatch)
	g.POST("/batch/async", authMW, h.submitBatchAsync)
	g.GET("/quota", authMW, h.quotaStatus)

	tasks := rg.Group("/tasks")
	tasks.GET("/:id", authMW, h.getTask)
}

func (h *Handler) submitBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "projectName and imageUrls are required")
		return
	}
	if len(req.ImageURLs) > maxBatchImages {
		response.BadRequest(c, "too many images in one batch")
		return
	}

	summary, err := h.svc.SubmitBatch(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, summary)
}

func (h *Handler) submitBatchAsync(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "projectName and imageUrls are required")
		return
	}
	if len(req.ImageURLs) > maxBatchImages {
		response.BadRequest(c, "too many images in one batch")
		return
	}

	task, err := h.svc.SubmitBatchAsync(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, task)
}

func (h *Handler) quotaStatus(c *gin.Context) {
	status, err := h.guard.Status(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, status)
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.svc.taskSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil {
		response.NotFound(c)
		return
	}
	if task.OwnerID != "" && task.OwnerID != middleware.CurrentUserID(c) {
		response.Forbidden(c)
		return
	}
	response.OK(c, task)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var quotaErr *quota.ExceededError
	switch {
	case errors.As(err, &quotaErr):
		response.TooManyRequests(c, quotaErr.Error())
	case errors.Is(err, ErrDisabled):
		response.BadRequest(c, ErrDisabled.Error())
	case IsConfigurationError(err):
		response.UnprocessableEntity(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
