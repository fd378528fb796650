package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/llm"
	"github.com/abhisek/workbook/internal/logger"
)

// LLMUsage aggregates calls for one purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMRequestRepo is the language model request log. It implements
// llm.EventRecorder so providers can write to it directly.
type LLMRequestRepo interface {
	llm.EventRecorder
	// List returns the latest calls, optionally filtered by purpose.
	List(ctx context.Context, tx *gorm.DB, limit int, purpose string) ([]*LLMRequest, error)
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, tx *gorm.DB, id uint) (*LLMRequest, error)
	// UsageByPurpose and UsageByModel aggregate calls, tokens and latency.
	UsageByPurpose(ctx context.Context, tx *gorm.DB) ([]LLMUsage, error)
	UsageByModel(ctx context.Context, tx *gorm.DB) ([]LLMUsage, error)
}

type llmRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewLLMRequestRepo creates an LLMRequestRepo backed by db.
func NewLLMRequestRepo(db *gorm.DB, baseLog *logger.Logger) LLMRequestRepo {
	return &llmRequestRepo{db: db, log: baseLog.With("repo", "LLMRequestRepo")}
}

// RecordLLMRequest appends one call to the request log.
func (r *llmRequestRepo) RecordLLMRequest(ctx context.Context, data llm.RequestRecord) error {
	row := &LLMRequest{
		Provider:     data.Provider,
		Model:        data.Model,
		Purpose:      data.Purpose,
		InputTokens:  data.InputTokens,
		OutputTokens: data.OutputTokens,
		LatencyMs:    data.LatencyMs,
		Success:      data.Success,
		ErrorMessage: data.ErrorMessage,
		RequestBody:  data.RequestBody,
		ResponseBody: data.ResponseBody,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *llmRequestRepo) List(ctx context.Context, tx *gorm.DB, limit int, purpose string) ([]*LLMRequest, error) {
	var out []*LLMRequest
	q := pick(r.db, tx).WithContext(ctx).Order("id DESC")
	if purpose != "" {
		q = q.Where("purpose = ?", purpose)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *llmRequestRepo) Get(ctx context.Context, tx *gorm.DB, id uint) (*LLMRequest, error) {
	var row LLMRequest
	if err := pick(r.db, tx).WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (r *llmRequestRepo) UsageByPurpose(ctx context.Context, tx *gorm.DB) ([]LLMUsage, error) {
	return r.usage(ctx, tx, "purpose")
}

func (r *llmRequestRepo) UsageByModel(ctx context.Context, tx *gorm.DB) ([]LLMUsage, error) {
	return r.usage(ctx, tx, "model")
}

func (r *llmRequestRepo) usage(ctx context.Context, tx *gorm.DB, column string) ([]LLMUsage, error) {
	var rows []struct {
		GroupKey     string
		Calls        int
		InputTokens  int
		OutputTokens int
		AvgLatency   float64
	}
	err := pick(r.db, tx).WithContext(ctx).
		Model(&LLMRequest{}).
		Select(column + " AS group_key, COUNT(*) AS calls, COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens, COALESCE(AVG(latency_ms), 0) AS avg_latency").
		Group(column).
		Order("calls DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]LLMUsage, 0, len(rows))
	for _, row := range rows {
		out = append(out, LLMUsage{
			Key:          row.GroupKey,
			Calls:        row.Calls,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			AvgLatencyMs: int64(row.AvgLatency),
		})
	}
	return out, nil
}
