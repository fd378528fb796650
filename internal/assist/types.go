package assist

import (
	"errors"

	"github.com/abhisek/workbook/internal/llm"
)

// Mode is one of the four assistant actions.
type Mode string

const (
	ModeSummarize Mode = "summarize"
	ModeAsk       Mode = "ask"
	ModeOutline   Mode = "outline"
	ModeCitations Mode = "citations"
)

// Modes lists the assistant modes in display order.
func Modes() []Mode {
	return []Mode{ModeSummarize, ModeAsk, ModeOutline, ModeCitations}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSummarize, ModeAsk, ModeOutline, ModeCitations:
		return true
	}
	return false
}

var (
	// ErrNoSource is returned when neither text nor a readable URL was given.
	ErrNoSource = errors.New("provide text or a valid url")

	// ErrNoQuestion is returned by Ask without a question.
	ErrNoQuestion = errors.New("missing question")
)

// Language styles.
const (
	StyleEveryday = "everyday"
	StyleAcademic = "academic"
)

// Options personalise a prompt.
type Options struct {
	Language    string `json:"language"`
	Interests   string `json:"interests"`
	Community   string `json:"community"`
	OutputStyle string `json:"outputStyle"`

	// LanguageStyle is StyleEveryday or StyleAcademic.
	LanguageStyle      string `json:"languageStyle"`
	ExplainTerms       bool   `json:"explainTerms"`
	KeepTechnicalTerms bool   `json:"keepTechnicalTerms"`
	IncludeExamples    bool   `json:"includeExamples"`

	// Lens narrows examples to one theme ("community", "sports", "music").
	Lens       string `json:"lens,omitempty"`
	StepByStep bool   `json:"stepByStep,omitempty"`
	Takeaways  bool   `json:"takeaways,omitempty"`
}

// Input is the source material for one call.
type Input struct {
	Text     string
	URL      string
	Question string
	Options  Options
}

// Citation is one structured MLA-style citation.
type Citation struct {
	URL       string `json:"url"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Date      string `json:"date"`
	MLA       string `json:"mla"`
}

// Result is the assistant's reply.
type Result struct {
	Mode Mode `json:"mode"`

	// Text is the summary, answer, outline, verification suggestions or
	// formatted citation list, as markdown.
	Text string `json:"text"`

	// URLs are the links found in the source, for citations only.
	URLs      []string   `json:"urls,omitempty"`
	Citations []Citation `json:"citations,omitempty"`

	Model string    `json:"model"`
	Usage llm.Usage `json:"-"`
}
