package evaluation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	appcfg "github.com/uidex/core/internal/config"
	"github.com/uidex/core/internal/models"
	"github.com/uidex/core/internal/modules/configs"
	"github.com/uidex/core/internal/modules/quota"
	"github.com/uidex/core/internal/modules/search"
	"github.com/uidex/core/internal/modules/storage/imagefetch"
	"github.com/uidex/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const TaskTypeBatch = "evaluation:batch"

// storedScoreScale converts a normalized [0,1] score to the 0-10 domain the
// showcases table keeps.
const storedScoreScale = 10

// Service runs the evaluation pipeline end to end: quota pre-flight, batch
// scheduling, and dual-sink persistence.
type Service struct {
	db      *gorm.DB
	cfgSvc  *configs.Service
	guard   *quota.Guard
	search  *search.Service
	taskSvc *taskqueue.Service
	fetcher *imagefetch.Service
	logger  *zap.Logger
}

func NewService(
	db *gorm.DB,
	cfgSvc *configs.Service,
	guard *quota.Guard,
	searchSvc *search.Service,
	taskSvc *taskqueue.Service,
	fetcher *imagefetch.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:      db,
		cfgSvc:  cfgSvc,
		guard:   guard,
		search:  searchSvc,
		taskSvc: taskSvc,
		fetcher: fetcher,
		logger:  logger.Named("evaluation"),
	}
}

// SubmitBatch runs a batch synchronously and returns the full accounting.
// The quota check happens before any invocation or write; a configuration
// error aborts before any item is scheduled.
func (s *Service) SubmitBatch(ctx context.Context, ownerID string, req BatchRequest) (*BatchSummary, error) {
	return s.run(ctx, ownerID, req, nil)
}

// SubmitBatchAsync enqueues the batch as a background task and returns it
// immediately; progress and the final summary land on the task record.
// Resubmitting an identical request while the first run is still live
// returns the existing task instead of evaluating twice.
func (s *Service) SubmitBatchAsync(ctx context.Context, ownerID string, req BatchRequest) (*taskqueue.Task, error) {
	// Fail fast on what would reject the batch anyway, so the caller gets
	// a synchronous error instead of a task that dies instantly.
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return nil, err
	}
	if !cfg.Evaluation.Enable {
		return nil, ErrDisabled
	}
	if err := s.guard.Check(ctx, ownerID, len(req.ImageURLs)); err != nil {
		return nil, err
	}

	task, created, err := s.taskSvc.Enqueue(ctx, TaskTypeBatch, req, batchDedupKey(ownerID, req), ownerID)
	if err != nil {
		return nil, err
	}

	if created {
		go s.executeTask(context.Background(), task.ID, ownerID, req)
	}
	return task, nil
}

// batchDedupKey identifies a submission by owner and exact request content.
func batchDedupKey(ownerID string, req BatchRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(ownerID+"\x00"), payload...))
	return hex.EncodeToString(sum[:])
}

func (s *Service) executeTask(ctx context.Context, taskID, ownerID string, req BatchRequest) {
	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, "")

	progress := func(completed, total int) {
		s.taskSvc.UpdateProgress(ctx, taskID, completed, total)
	}

	summary, err := s.run(ctx, ownerID, req, progress)
	if err != nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}
	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, summary, "")
}

func (s *Service) run(ctx context.Context, ownerID string, req BatchRequest, progress ProgressFunc) (*BatchSummary, error) {
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return nil, err
	}
	if !cfg.Evaluation.Enable {
		return nil, ErrDisabled
	}

	if err := s.guard.Check(ctx, ownerID, len(req.ImageURLs)); err != nil {
		return nil, err
	}

	provider := selectProvider(cfg.AI, cfg.AI.VisionModel)
	invoker, err := NewInvoker(provider, cfg.Evaluation, s.fetcher)
	if err != nil {
		return nil, err
	}

	projectContext := req.ProjectContext
	if projectContext == "" {
		projectContext = req.ProjectName
	}
	projectContext = briefContext(ctx, cfg, projectContext, s.logger)

	inputs := make([]EvaluationInput, len(req.ImageURLs))
	for i, url := range req.ImageURLs {
		inputs[i] = EvaluationInput{ImageRef: url, ProjectContext: projectContext, Index: i}
	}

	sched := &Scheduler{
		ChunkSize:  chunkSize(req.BatchSize, cfg.Evaluation),
		ChunkDelay: chunkDelay(cfg.Evaluation),
		Evaluate: func(ctx context.Context, in EvaluationInput) (EvaluationResult, error) {
			raw, err := invoker.Invoke(ctx, in)
			if err != nil {
				return EvaluationResult{}, err
			}
			return Normalize(raw), nil
		},
		OnProgress: progress,
		Logger:     s.logger,
	}

	s.logger.Info("starting evaluation batch",
		zap.String("owner_id", ownerID),
		zap.String("project", req.ProjectName),
		zap.Int("images", len(inputs)),
		zap.Int("chunk_size", sched.ChunkSize),
	)

	results, itemErrs := sched.Run(ctx, inputs)
	summary := s.persist(ctx, ownerID, req.ProjectName, inputs, results, itemErrs)

	s.logger.Info("evaluation batch finished",
		zap.String("owner_id", ownerID),
		zap.Int("saved", summary.SavedCount),
		zap.Int("total", summary.TotalImages),
		zap.Int("eval_failed", summary.Details.Evaluation.Failed),
		zap.Int("save_failed", summary.Details.Save.Failed),
	)
	return summary, nil
}

// persist writes each result to the store-of-record (hard per-item failure)
// and then, best effort, to the search index (warning only). No cross-store
// transaction: a row may legitimately exist without a search document until
// the nightly reindex reconciles.
func (s *Service) persist(ctx context.Context, ownerID, projectName string, inputs []EvaluationInput, results []EvaluationResult, itemErrs []ItemError) *BatchSummary {
	summary := &BatchSummary{
		TotalImages: len(inputs),
		Warnings:    []string{},
		SavedIDs:    []string{},
	}

	summary.Details.Evaluation.Failed = len(itemErrs)
	summary.Details.Evaluation.Success = len(results) - len(itemErrs)
	for _, ie := range itemErrs {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("item %d evaluation failed: %s", ie.Index+1, ie.Reason))
	}

	for i := range results {
		row := showcaseFromResult(ownerID, projectName, inputs[i].ImageRef, results[i])
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			s.logger.Error("showcase insert failed",
				zap.Int("index", i), zap.String("owner_id", ownerID), zap.Error(err))
			summary.Details.Save.Failed++
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("item %d could not be saved: %v", i+1, err))
			continue
		}

		summary.Details.Save.Success++
		summary.SavedCount++
		summary.SavedIDs = append(summary.SavedIDs, row.ID)

		if err := s.search.IndexShowcase(row); err != nil {
			// soft failure: the row exists, the index will catch up
			s.logger.Warn("search index upsert failed",
				zap.String("id", row.ID), zap.Error(err))
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("item %d was saved but not indexed for search: %v", i+1, err))
		}
	}

	return summary
}

func showcaseFromResult(ownerID, projectName, imageRef string, result EvaluationResult) *models.ShowcaseModel {
	row := &models.ShowcaseModel{
		OwnerID:       ownerID,
		ImageRef:      imageRef,
		ProjectName:   projectName,
		UIType:        result.UIType,
		StructureNote: result.StructureNote,
		ReviewText:    result.ReviewText,
		Tags:          models.StringArray(result.Tags),
		ParseMode:     string(result.ParseMode),
	}
	row.ScoreAesthetic = storedScore(result.Scores, ScoreAesthetic)
	row.ScoreUsability = storedScore(result.Scores, ScoreUsability)
	row.ScoreAlignment = storedScore(result.Scores, ScoreAlignment)
	row.ScoreAccessibility = storedScore(result.Scores, ScoreAccessibility)
	row.ScoreConsistency = storedScore(result.Scores, ScoreConsistency)
	return row
}

func storedScore(scores map[string]float64, category string) *float64 {
	value, ok := scores[category]
	if !ok {
		return nil
	}
	stored := value * storedScoreScale
	return &stored
}

func chunkSize(requested int, opts appcfg.EvaluationOptions) int {
	size := requested
	if size <= 0 {
		size = opts.ChunkSize
	}
	if size <= 0 {
		size = 3
	}
	if size > 10 {
		size = 10
	}
	return size
}

func chunkDelay(opts appcfg.EvaluationOptions) time.Duration {
	if opts.ChunkDelayMS <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(opts.ChunkDelayMS) * time.Millisecond
}

// TaskSummary decodes a completed batch task's result back into a summary.
func TaskSummary(task *taskqueue.Task) (*BatchSummary, error) {
	if task == nil || len(task.Result) == 0 {
		return nil, fmt.Errorf("task has no result")
	}
	var summary BatchSummary
	if err := json.Unmarshal(task.Result, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
