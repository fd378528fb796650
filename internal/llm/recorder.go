package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/workbook/internal/logger"
)

// RequestRecord describes one completed call.
type RequestRecord struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventRecorder persists request records.
type EventRecorder interface {
	RecordLLMRequest(ctx context.Context, rec RequestRecord) error
}

// Observer receives every record after it is built, e.g. for metrics.
type Observer func(RequestRecord)

// RecordingProvider records every call. Recording failures are logged and
// never fail the call.
type RecordingProvider struct {
	inner    Provider
	provider string
	recorder EventRecorder
	observe  Observer
	log      *logger.Logger
}

// WithRecording wraps p so every call is written to rec and passed to
// observe. Either may be nil. Recorder failures are logged, never returned.
func WithRecording(p Provider, provider string, rec EventRecorder, observe Observer, log *logger.Logger) Provider {
	return &RecordingProvider{
		inner:    p,
		provider: provider,
		recorder: rec,
		observe:  observe,
		log:      logger.OrNop(log),
	}
}

func (l *RecordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	rec := RequestRecord{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			rec.Model = resp.Model
		}
		rec.ResponseBody = string(resp.Content)
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}

	if l.observe != nil {
		l.observe(rec)
	}
	if l.recorder != nil {
		// The caller's context may already be done.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if recErr := l.recorder.RecordLLMRequest(recCtx, rec); recErr != nil {
			l.log.Warn("record llm request failed", "purpose", rec.Purpose, "error", recErr)
		}
		cancel()
	}
	return resp, err
}

func (l *RecordingProvider) ModelID() string {
	return l.inner.ModelID()
}

func serializeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
