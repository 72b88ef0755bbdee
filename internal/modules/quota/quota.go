package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/uidex/core/internal/models"
	"github.com/uidex/core/internal/modules/configs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExceededError is returned when an owner's daily evaluation budget cannot
// cover the requested batch.
type ExceededError struct {
	Limit     int
	Used      int
	Requested int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf(
		"daily evaluation quota exceeded: %d used of %d, %d more requested",
		e.Used, e.Limit, e.Requested,
	)
}

// Status is the owner-facing view of today's budget.
type Status struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Guard enforces the per-owner daily evaluation limit. The check is a
// pre-flight estimate against persisted rows, not an atomic reservation:
// concurrent batches from the same owner can both pass and overshoot the
// limit slightly. That is accepted; the guard exists to stop runaway usage,
// not to meter it precisely.
type Guard struct {
	db     *gorm.DB
	cfgSvc *configs.Service
	logger *zap.Logger

	now func() time.Time
}

func NewGuard(db *gorm.DB, cfgSvc *configs.Service, logger *zap.Logger) *Guard {
	return &Guard{
		db:     db,
		cfgSvc: cfgSvc,
		logger: logger.Named("quota"),
		now:    time.Now,
	}
}

// Check verifies that ownerID can evaluate `requested` more images today.
// Returns *ExceededError when the budget cannot cover the batch.
func (g *Guard) Check(ctx context.Context, ownerID string, requested int) error {
	status, err := g.Status(ctx, ownerID)
	if err != nil {
		return err
	}
	if status.Limit <= 0 {
		// zero or negative limit disables the guard
		return nil
	}
	if requested > status.Remaining {
		g.logger.Warn("quota exceeded",
			zap.String("owner_id", ownerID),
			zap.Int("used", status.Used),
			zap.Int("limit", status.Limit),
			zap.Int("requested", requested),
		)
		return &ExceededError{Limit: status.Limit, Used: status.Used, Requested: requested}
	}
	return nil
}

// Status counts today's persisted evaluations for ownerID against the limit.
func (g *Guard) Status(ctx context.Context, ownerID string) (*Status, error) {
	cfg, err := g.cfgSvc.Get()
	if err != nil {
		return nil, err
	}
	limit := cfg.Quota.DailyLimit

	var used int64
	dayStart := g.dayStart()
	err = g.db.WithContext(ctx).
		Model(&models.ShowcaseModel{}).
		Where("owner_id = ? AND created_at >= ?", ownerID, dayStart).
		Count(&used).Error
	if err != nil {
		return nil, err
	}

	remaining := limit - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return &Status{Limit: limit, Used: int(used), Remaining: remaining}, nil
}

func (g *Guard) dayStart() time.Time {
	now := g.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
