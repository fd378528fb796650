package assist

import (
	"fmt"
	"strings"

	"github.com/abhisek/workbook/internal/settings"
)

const (
	summarizeSystemPrompt = `You are an educator helping a high school student understand research articles with respectful, strengths-based language.`
	askSystemPrompt       = `Answer as a helpful tutor for a high school student with respectful, strengths-based language. If unsure, say you are unsure.`
	outlineSystemPrompt   = `You create structured, student-friendly study guides and research outlines with respectful, strengths-based language.`
	verifySystemPrompt    = `You help students verify information by suggesting credible sources and search queries.`
	citationSystemPrompt  = `You format quick MLA-style citations.`
)

// phrasing holds the per-mode wording of the shared instructions.
type phrasing struct {
	tone     string
	everyday string
	academic string
	define   string
	keep     string
	bullets  string
	prose    string
}

var phrasings = map[Mode]phrasing{
	ModeSummarize: {
		tone:     "Use an inclusive, strengths-based, empowering tone.",
		everyday: "Use everyday language with short sentences as a strategy for quick understanding.",
		academic: "Use an academic-friendly tone that keeps key terms but stays clear and approachable.",
		define:   "Briefly define key terms on first mention.",
		keep:     "Keep important technical terms where they matter.",
		bullets:  "Prefer concise bullet points over long paragraphs.",
		prose:    "Prefer short, plain-language paragraphs.",
	},
	ModeAsk: {
		tone:     "Use an inclusive, strengths-based tone. Avoid stereotypes.",
		everyday: "Start with an everyday language answer in one sentence, then a short step-by-step explanation.",
		academic: "Use an academic-friendly tone that keeps key terms and stays concise; begin with a one-sentence answer.",
		define:   "Define key terms briefly on first mention.",
		keep:     "Keep important technical terms where helpful.",
		bullets:  "Prefer concise bullet points for steps.",
		prose:    "Prefer short paragraphs for explanations.",
	},
	ModeOutline: {
		tone:     "Use an inclusive, strengths-based tone. Avoid stereotypes.",
		everyday: "Use everyday language for clarity; short sentences are fine.",
		academic: "Use an academic-friendly tone that retains key terms, while staying approachable.",
		define:   "Include brief definitions for key terms on first mention.",
		keep:     "Keep important technical terms where appropriate.",
		bullets:  "Prefer concise bullet points.",
		prose:    "Prefer short, plain-language paragraphs.",
	},
}

func personalization(mode Mode, o Options) string {
	p := phrasings[mode]
	parts := []string{fmt.Sprintf("Respond in %s.", o.Language), p.tone}
	if o.Interests != "" {
		parts = append(parts, fmt.Sprintf("When giving examples, connect to these interests: %s.", o.Interests))
	}
	if o.Community != "" {
		parts = append(parts, fmt.Sprintf("When relevant, include contexts or examples related to: %s.", o.Community))
	}
	if o.OutputStyle == settings.OutputStyleBullets {
		parts = append(parts, p.bullets)
	} else {
		parts = append(parts, p.prose)
	}
	if o.IncludeExamples {
		parts = append(parts, "Include real-world examples and practical applications to make concepts more concrete and relatable.")
	}
	if o.Lens != "" {
		parts = append(parts, fmt.Sprintf("Draw examples from %s.", lensPhrase(o.Lens)))
	}
	return strings.Join(parts, " ")
}

func lensPhrase(lens string) string {
	switch lens {
	case "community":
		return "the student's community and everyday local life"
	case "sports":
		return "sports"
	case "music":
		return "music"
	}
	return lens
}

func styleInstruction(mode Mode, o Options) string {
	p := phrasings[mode]
	if o.LanguageStyle == StyleAcademic {
		return p.academic
	}
	return p.everyday
}

func termInstruction(mode Mode, o Options) string {
	p := phrasings[mode]
	var parts []string
	if o.ExplainTerms {
		parts = append(parts, p.define)
	}
	if o.KeepTechnicalTerms {
		parts = append(parts, p.keep)
	}
	return strings.Join(parts, " ")
}

func scaffolding(o Options) string {
	var parts []string
	if o.StepByStep {
		parts = append(parts, "Break the explanation into small numbered steps that build on each other.")
	}
	if o.Takeaways {
		parts = append(parts, "Finish with a short list of key takeaways.")
	}
	return strings.Join(parts, " ")
}

// joinSections joins non-empty sections with blank lines.
func joinSections(sections ...string) string {
	kept := sections[:0]
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}

func buildSummarizeMessage(source string, o Options) string {
	return joinSections(
		personalization(ModeSummarize, o),
		styleInstruction(ModeSummarize, o),
		termInstruction(ModeSummarize, o),
		scaffolding(o),
		"Summarize the following with clear section headings and a short glossary of key terms.",
		"End with: (1) 3-5 guiding questions to check understanding, (2) 2-3 next steps students can take with free or low-cost resources.",
		"Article Content:\n\n"+source,
	)
}

func buildAskMessage(question, context string, o Options) string {
	if context == "" {
		context = "(no context provided)"
	}
	return joinSections(
		personalization(ModeAsk, o),
		styleInstruction(ModeAsk, o),
		termInstruction(ModeAsk, o),
		scaffolding(o),
		"Use the context to answer the question with clear markdown formatting (**bold** for emphasis, *italic* for key terms).",
		`Structure your response with:
- **Direct Answer** (one clear sentence)
- *Key Terms* (italicize important concepts)
- **Explanation** (step-by-step breakdown)
- **Related Questions** (2-3 follow-up questions)`,
		"If the context does not contain the answer, say so and suggest how to find it in free or low-cost sources.",
		"Question: "+question,
		"Context:\n\n"+context,
	)
}

func buildOutlineMessage(source string, o Options) string {
	return joinSections(
		personalization(ModeOutline, o),
		styleInstruction(ModeOutline, o),
		termInstruction(ModeOutline, o),
		scaffolding(o),
		"Create a clear outline with: key idea bullets, definitions, important data, and a short step-by-step plan to present or write about it.",
		"Keep language accessible to high school students.",
		"Include a short section: 'Why this matters in my life/community' using the student's interests/community when provided.",
		"End with 2-3 next steps using free or low-cost resources.",
		"Source:\n\n"+source,
	)
}

func buildVerifyMessage(source string, o Options) string {
	if source == "" {
		source = "(none)"
	}
	var interests, community string
	if o.Interests != "" {
		interests = fmt.Sprintf("If helpful, relate queries to these interests: %s.", o.Interests)
	}
	if o.Community != "" {
		community = fmt.Sprintf("Include ideas for local/community organizations or public resources relevant to: %s.", o.Community)
	}
	return joinSections(
		fmt.Sprintf("Respond in %s. Use an inclusive tone with markdown formatting (**bold** for emphasis, *italic* for key terms).", o.Language),
		interests,
		community,
		`Structure your response with:
- ### **Search Queries** (3-5 specific search terms)
- ### **Credible Sources** (example websites and organizations)
- ### **Local Resources** (community-specific verification options)`,
		"Text:\n\n"+source,
	)
}

func buildCitationMessage(urls []string, o Options) string {
	var b strings.Builder
	for i, u := range urls {
		fmt.Fprintf(&b, "%d. %s\n", i+1, u)
	}
	return joinSections(
		fmt.Sprintf("Respond in %s.", o.Language),
		"Turn these URLs into brief MLA-style citations (author or site, title, publisher/site, date if available, URL).",
		"Return one citation per URL, in the same order. Leave a field empty when it is not known.",
		strings.TrimRight(b.String(), "\n"),
	)
}

// formatCitations renders structured citations as a markdown list.
func formatCitations(cs []Citation) string {
	var b strings.Builder
	b.WriteString("### **MLA Citations**\n")
	for i, c := range cs {
		line := c.MLA
		if line == "" {
			line = mlaLine(c)
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, line)
	}
	return b.String()
}

func mlaLine(c Citation) string {
	var parts []string
	if c.Author != "" {
		parts = append(parts, "*"+c.Author+"*.")
	}
	if c.Title != "" {
		parts = append(parts, "**"+c.Title+"**.")
	}
	if c.Publisher != "" {
		parts = append(parts, c.Publisher+",")
	}
	if c.Date != "" {
		parts = append(parts, c.Date+",")
	}
	parts = append(parts, c.URL+".")
	return strings.Join(parts, " ")
}
