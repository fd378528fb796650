// Package assist turns source material into summaries, answers, outlines and
// citations shaped by a learner's settings and sticky preferences.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/workbook/internal/llm"
	"github.com/abhisek/workbook/internal/logger"
)

// Service runs assistant requests against a provider.
type Service struct {
	provider llm.Provider
	fetcher  Fetcher
	cfg      Config
	log      *logger.Logger
}

// NewService creates an assistant. fetcher may be nil, in which case URLs
// are never resolved.
func NewService(provider llm.Provider, fetcher Fetcher, cfg Config, log *logger.Logger) *Service {
	if cfg.MaxSourceChars <= 0 {
		cfg.MaxSourceChars = MaxSourceChars
	}
	return &Service{
		provider: provider,
		fetcher:  fetcher,
		cfg:      cfg,
		log:      logger.OrNop(log).With("service", "Assist"),
	}
}

// Run dispatches to the mode's operation.
func (s *Service) Run(ctx context.Context, mode Mode, in Input) (*Result, error) {
	switch mode {
	case ModeSummarize:
		return s.Summarize(ctx, in)
	case ModeAsk:
		return s.Ask(ctx, in)
	case ModeOutline:
		return s.Outline(ctx, in)
	case ModeCitations:
		return s.Citations(ctx, in)
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

func (s *Service) Summarize(ctx context.Context, in Input) (*Result, error) {
	source := s.source(ctx, in)
	if source == "" {
		return nil, ErrNoSource
	}
	o := in.Options.withDefaults()
	return s.text(llm.WithPurpose(ctx, llm.PurposeSummarize), ModeSummarize,
		summarizeSystemPrompt, buildSummarizeMessage(source, o))
}

// Ask answers a question. The source is optional context.
func (s *Service) Ask(ctx context.Context, in Input) (*Result, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, ErrNoQuestion
	}
	o := in.Options.withDefaults()
	return s.text(llm.WithPurpose(ctx, llm.PurposeAsk), ModeAsk,
		askSystemPrompt, buildAskMessage(question, s.source(ctx, in), o))
}

func (s *Service) Outline(ctx context.Context, in Input) (*Result, error) {
	source := s.source(ctx, in)
	if source == "" {
		return nil, ErrNoSource
	}
	o := in.Options.withDefaults()
	return s.text(llm.WithPurpose(ctx, llm.PurposeOutline), ModeOutline,
		outlineSystemPrompt, buildOutlineMessage(source, o))
}

type citationOutput struct {
	Citations []Citation `json:"citations"`
}

// Citations formats the links in the source as MLA citations. A source
// without links gets verification suggestions instead.
func (s *Service) Citations(ctx context.Context, in Input) (*Result, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeCitations)
	o := in.Options.withDefaults()
	source := s.source(ctx, in)

	urls := ExtractURLs(source, maxURLs)
	if len(urls) == 0 {
		res, err := s.text(ctx, ModeCitations, verifySystemPrompt, buildVerifyMessage(source, o))
		if err != nil {
			return nil, err
		}
		res.URLs = []string{}
		return res, nil
	}

	req := llm.UserPrompt(citationSystemPrompt, buildCitationMessage(urls, o), s.cfg.MaxTokens)
	req.Schema = CitationSchema
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("citations generation: %w", err)
	}

	var out citationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse citations response: %w", err)
	}

	return &Result{
		Mode:      ModeCitations,
		Text:      formatCitations(out.Citations),
		URLs:      urls,
		Citations: out.Citations,
		Model:     resp.Model,
		Usage:     resp.Usage,
	}, nil
}

func (s *Service) text(ctx context.Context, mode Mode, system, prompt string) (*Result, error) {
	req := llm.UserPrompt(system, prompt, s.cfg.MaxTokens)
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s generation: %w", mode, err)
	}
	return &Result{
		Mode:  mode,
		Text:  strings.TrimSpace(resp.Text()),
		Model: resp.Model,
		Usage: resp.Usage,
	}, nil
}

// source resolves the input to cleaned text. A URL that cannot be fetched
// falls back to the given text.
func (s *Service) source(ctx context.Context, in Input) string {
	content := in.Text
	if in.URL != "" && s.fetcher != nil {
		fetched, err := s.fetcher.Fetch(ctx, in.URL)
		if err != nil {
			s.log.Warn("fetch source failed", "url", in.URL, "error", err)
		} else {
			content = fetched
		}
	}
	return Clean(content, s.cfg.MaxSourceChars)
}
