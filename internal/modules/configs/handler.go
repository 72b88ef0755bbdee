package configs

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/uidex/core/internal/config"
	"github.com/uidex/core/internal/pkg/response"
)

const redactedSecret = "********"

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/configs", authMW)
	g.GET("", h.get)
	g.PATCH("", h.patch)
}

func (h *Handler) get(c *gin.Context) {
	cfg, err := h.svc.Get()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, redact(cfg))
}

func (h *Handler) patch(c *gin.Context) {
	var partial map[string]json.RawMessage
	if err := c.ShouldBindJSON(&partial); err != nil {
		response.BadRequest(c, "invalid config patch")
		return
	}

	updated, err := h.svc.Patch(partial)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, redact(updated))
}

// redact hides credentials in API responses; the stored values are untouched.
func redact(cfg *config.FullConfig) config.FullConfig {
	out := *cfg
	out.AI.Providers = make([]config.AIProvider, len(cfg.AI.Providers))
	copy(out.AI.Providers, cfg.AI.Providers)
	for i := range out.AI.Providers {
		if out.AI.Providers[i].APIKey != "" {
			out.AI.Providers[i].APIKey = redactedSecret
		}
	}
	if out.MeiliSearch.APIKey != "" {
		out.MeiliSearch.APIKey = redactedSecret
	}
	if out.ImageStorage.SecretAccessKey != "" {
		out.ImageStorage.SecretAccessKey = redactedSecret
	}
	return out
}
