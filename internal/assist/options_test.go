package assist

import (
	"testing"
	"time"

	"github.com/abhisek/workbook/internal/settings"
)

func TestOptionsFor_Defaults(t *testing.T) {
	o := OptionsFor(settings.Default())
	if o.Language != "English" {
		t.Errorf("language = %q", o.Language)
	}
	if o.Community != "" {
		t.Errorf("general community should be omitted, got %q", o.Community)
	}
	if o.OutputStyle != settings.OutputStyleParagraphs {
		t.Errorf("output style = %q", o.OutputStyle)
	}
	if o.LanguageStyle != StyleEveryday || !o.ExplainTerms {
		t.Errorf("simple reading level should be everyday with definitions: %+v", o)
	}
}

func TestOptionsFor_SettingsAndPreferences(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := settings.Default()
	s.Language = "Vietnamese"
	s.Interests = []string{"music", "basketball"}
	s.Community = "Rural Midwest"
	s.DefaultReadingLevel = settings.ReadingLevelStandard
	s.SetPreference("tone:academic", true, now)
	s.SetPreference("depth:short", true, now)
	s.SetPreference("depth:scaffolded", true, now)
	s.SetPreference("lens:sports", true, now)
	s.SetPreference("aids:takeaways", true, now)

	o := OptionsFor(s)
	if o.Language != "Vietnamese" || o.Interests != "music, basketball" || o.Community != "Rural Midwest" {
		t.Errorf("basic fields: %+v", o)
	}
	if o.LanguageStyle != StyleAcademic || !o.KeepTechnicalTerms {
		t.Errorf("tone:academic not applied: %+v", o)
	}
	if o.ExplainTerms {
		t.Error("standard reading level without aids:vocab should not define terms")
	}
	if o.OutputStyle != settings.OutputStyleBullets {
		t.Errorf("depth:short should force bullets, got %q", o.OutputStyle)
	}
	if !o.StepByStep || !o.Takeaways {
		t.Errorf("scaffolding flags not set: %+v", o)
	}
	if o.Lens != "sports" || !o.IncludeExamples {
		t.Errorf("lens not applied: %+v", o)
	}
}

func TestOptionsFor_VocabAid(t *testing.T) {
	s := settings.Default()
	s.DefaultReadingLevel = settings.ReadingLevelStandard
	s.SetPreference("aids:vocab", true, time.Now())
	if o := OptionsFor(s); !o.ExplainTerms {
		t.Error("aids:vocab should turn on definitions")
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{Language: "French", Takeaways: true}.withDefaults()
	if o.Language != "French" {
		t.Errorf("explicit language lost: %q", o.Language)
	}
	if o.OutputStyle != settings.OutputStyleBullets || o.LanguageStyle != StyleEveryday {
		t.Errorf("defaults not filled: %+v", o)
	}
	if o.ExplainTerms || !o.Takeaways {
		t.Errorf("flags should be left as given: %+v", o)
	}
}
