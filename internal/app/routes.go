package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uidex/core/internal/middleware"
	"github.com/uidex/core/internal/modules/configs"
	"github.com/uidex/core/internal/modules/evaluation"
	"github.com/uidex/core/internal/modules/health"
	"github.com/uidex/core/internal/modules/quota"
	"github.com/uidex/core/internal/modules/search"
	"github.com/uidex/core/internal/modules/showcase"
	"github.com/uidex/core/internal/modules/storage/imagefetch"
	"github.com/uidex/core/internal/modules/user"
	pkgredis "github.com/uidex/core/internal/pkg/redis"
	"github.com/uidex/core/internal/pkg/response"
	"github.com/uidex/core/internal/pkg/taskqueue"
)

var processStart = time.Now()

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "uidex-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/uidex/core",
	}

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	// Shared services
	cfgSvc := configs.NewService(db, a.logger)
	searchSvc := search.NewService(db, cfgSvc, a.logger)
	taskSvc := taskqueue.NewService(rc)
	fetchSvc := imagefetch.NewService(cfgSvc)
	guard := quota.NewGuard(db, cfgSvc, a.logger)
	evalSvc := evaluation.NewService(db, cfgSvc, guard, searchSvc, taskSvc, fetchSvc, a.logger)
	showcaseSvc := showcase.NewService(db, searchSvc, a.logger)

	// Versioned API
	api := r.Group("/api/v2")
	api.Use(middleware.OptionalAuth())

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"timestamp": time.Since(processStart).Milliseconds()})
	})

	health.NewHandler(db, rc, a.sched).RegisterRoutes(api, authMW)
	configs.NewHandler(cfgSvc).RegisterRoutes(api, authMW)
	user.NewHandler(user.NewService(db)).RegisterRoutes(api, authMW)
	evaluation.NewHandler(evalSvc, guard).RegisterRoutes(api, authMW)
	showcase.NewHandler(showcaseSvc).RegisterRoutes(api, authMW)
	search.NewHandler(searchSvc).RegisterRoutes(api, authMW)
}
