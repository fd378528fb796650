package assist

import (
	"strings"

	"github.com/abhisek/workbook/internal/settings"
)

// DefaultOptions are used for anonymous callers with no settings.
func DefaultOptions() Options {
	return Options{
		Language:      "English",
		OutputStyle:   settings.OutputStyleBullets,
		LanguageStyle: StyleEveryday,
		ExplainTerms:  true,
	}
}

// OptionsFor derives prompt options from a learner's settings. Active
// preferences override what the reading level and output style imply.
func OptionsFor(s settings.Settings) Options {
	o := DefaultOptions()
	if s.Language != "" {
		o.Language = s.Language
	}
	o.Interests = strings.Join(s.Interests, ", ")
	if s.Community != "" && s.Community != "General" {
		o.Community = s.Community
	}
	if s.OutputStyle != "" {
		o.OutputStyle = s.OutputStyle
	}
	if s.DefaultReadingLevel == settings.ReadingLevelStandard {
		o.LanguageStyle = StyleAcademic
		o.ExplainTerms = false
	}

	for _, tag := range s.ActivePreferences() {
		o.applyPreference(tag)
	}
	return o
}

func (o *Options) applyPreference(tag string) {
	switch tag {
	case "tone:everyday":
		o.LanguageStyle = StyleEveryday
	case "tone:academic":
		o.LanguageStyle = StyleAcademic
		o.KeepTechnicalTerms = true
	case "depth:short":
		o.OutputStyle = settings.OutputStyleBullets
	case "depth:scaffolded":
		o.StepByStep = true
	case "aids:vocab":
		o.ExplainTerms = true
	case "aids:takeaways":
		o.Takeaways = true
	default:
		if lens, ok := strings.CutPrefix(tag, "lens:"); ok && lens != "" {
			o.Lens = lens
			o.IncludeExamples = true
		}
	}
}

// withDefaults fills empty text fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Language == "" {
		o.Language = d.Language
	}
	if o.OutputStyle == "" {
		o.OutputStyle = d.OutputStyle
	}
	if o.LanguageStyle == "" {
		o.LanguageStyle = d.LanguageStyle
	}
	return o
}
