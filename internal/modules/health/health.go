package health

import (
	"time"

	"github.com/gin-gonic/gin"
	pkgcron "github.com/uidex/core/internal/pkg/cron"
	pkgredis "github.com/uidex/core/internal/pkg/redis"
	"github.com/uidex/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Handler struct {
	db    *gorm.DB
	rc    *pkgredis.Client
	sched *pkgcron.Scheduler
}

func NewHandler(db *gorm.DB, rc *pkgredis.Client, sched *pkgcron.Scheduler) *Handler {
	return &Handler{db: db, rc: rc, sched: sched}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/health")
	g.GET("", h.check)
	g.GET("/cron", authMW, h.cronJobs)
}

func (h *Handler) check(c *gin.Context) {
	dbOK := true
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbOK = false
	}

	redisOK := h.rc.Ping(c.Request.Context()) == nil

	status := "ok"
	if !dbOK || !redisOK {
		status = "degraded"
	}
	response.OK(c, gin.H{
		"status":    status,
		"database":  dbOK,
		"redis":     redisOK,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *Handler) cronJobs(c *gin.Context) {
	response.OK(c, h.sched.List())
}
