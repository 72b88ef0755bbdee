package app

import (
	"context"
	"time"

	"github.com/uidex/core/internal/modules/configs"
	"github.com/uidex/core/internal/modules/search"
	pkgcron "github.com/uidex/core/internal/pkg/cron"
	pkgredis "github.com/uidex/core/internal/pkg/redis"
	"github.com/uidex/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

// registerCronJobs registers the scheduled background jobs: the nightly
// search reindex that reconciles rows written while the index was
// unreachable, and task-record cleanup.
func (a *App) registerCronJobs(rc *pkgredis.Client) {
	cfgSvc := configs.NewService(a.db, a.logger)
	searchSvc := search.NewService(a.db, cfgSvc, a.logger)
	taskSvc := taskqueue.NewService(rc)
	cronLogger := a.logger.Named("cron")

	a.sched.Register(pkgcron.Job{
		Name:        "search_reindex",
		Description: "rebuild the search index from the showcases table",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			if err := searchSvc.IndexAll(); err != nil {
				cronLogger.Warn("search reindex failed", zap.Error(err))
				return err
			}
			cronLogger.Info("search reindex completed")
			return nil
		},
	})

	a.sched.Register(pkgcron.Job{
		Name:        "cleanup_tasks",
		Description: "remove finished evaluation tasks older than 24h",
		Interval:    6 * time.Hour,
		Fn: func(ctx context.Context) error {
			before := time.Now().Add(-24 * time.Hour).UnixMilli()
			return taskSvc.DeleteCompleted(ctx, before)
		},
	})
}
