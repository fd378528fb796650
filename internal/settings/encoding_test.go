package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSettings() Settings {
	s := Default()
	s.Language = "Spanish"
	s.Interests = []string{"music", "soccer"}
	s.OutputStyle = OutputStyleBullets
	s.HasOnboarded = true
	s.AddSignal("tone:everyday", "summary", t0)
	s.AddSignal("tone:everyday", "qa", t0.Add(time.Minute))
	s.AddSignal("lens:music", "outline", t0.Add(2*time.Minute))
	s.SetPreference("tone:everyday", true, t0.Add(3*time.Minute))
	s.DismissNudge("lens:music")
	return s
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := sampleSettings()

	doc, err := Encode(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["music","soccer"]`, doc.Interests)
	assert.JSONEq(t, `{"lens:music":1}`, doc.Nudges)

	got, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestEncode_EmptyCollections(t *testing.T) {
	doc, err := Encode(Settings{})
	require.NoError(t, err)
	assert.Equal(t, "[]", doc.Interests)
	assert.Equal(t, "[]", doc.Signals)
	assert.Equal(t, "{}", doc.Preferences)
	assert.Equal(t, "{}", doc.Nudges)
}

func TestDecode_MalformedFieldsDegradeToEmpty(t *testing.T) {
	doc, err := Encode(sampleSettings())
	require.NoError(t, err)
	doc.Preferences = "{not json"
	doc.Signals = "[[["

	got, err := Decode(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode preferences")
	assert.Contains(t, err.Error(), "decode signals")

	assert.Empty(t, got.Preferences)
	assert.NotNil(t, got.Preferences)
	assert.Empty(t, got.Signals)
	// Intact fields survive.
	assert.Equal(t, "Spanish", got.Language)
	assert.Equal(t, 1, got.Nudges["lens:music"])
}

func TestDecode_EmptyStringsAreEmpty(t *testing.T) {
	got, err := Decode(Document{Language: "English"})
	require.NoError(t, err)
	assert.Empty(t, got.Signals)
	assert.Empty(t, got.Preferences)
	assert.Empty(t, got.Nudges)
	assert.Empty(t, got.Interests)
}

func TestDecodePreferences_DropsNonDefault(t *testing.T) {
	prefs, err := DecodePreferences(`{"a":{"default":true,"since":"2025-08-20T14:00:00Z"},"b":{"default":false}}`)
	require.NoError(t, err)
	assert.Len(t, prefs, 1)
	assert.True(t, prefs["a"].Default)
	assert.Equal(t, t0, prefs["a"].Since)
}

func TestDecodeSignals_LegacyAtField(t *testing.T) {
	raw := `[
		{"tag":"tone:everyday","at":"2025-08-20T14:00:00Z","context":"summary"},
		{"tag":"depth:short","timestamp":"2025-08-21T09:30:00Z","context":"qa"},
		{"tag":"aids:vocab","timestamp":"yesterday","context":"qa"}
	]`
	signals, err := DecodeSignals(raw)
	require.NoError(t, err)
	require.Len(t, signals, 3)
	assert.Equal(t, t0, signals[0].Timestamp)
	assert.Equal(t, time.Date(2025, 8, 21, 9, 30, 0, 0, time.UTC), signals[1].Timestamp)
	assert.True(t, signals[2].Timestamp.IsZero(), "bad timestamps are kept as zero")
}

func TestMarshalUnmarshal_SingleDocument(t *testing.T) {
	s := sampleSettings()
	data, err := Marshal(s)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestUnmarshalOver_KeepsDefaults(t *testing.T) {
	got, err := UnmarshalOver([]byte(`{"language":"French","hasOnboarded":true}`))
	require.NoError(t, err)
	assert.Equal(t, "French", got.Language)
	assert.True(t, got.HasOnboarded)
	assert.Equal(t, "General", got.Community)
	assert.True(t, got.MicroPromptsEnabled)
}

func TestUnmarshal_Invalid(t *testing.T) {
	got, err := Unmarshal([]byte(`{`))
	require.Error(t, err)
	assert.Equal(t, Default(), got)
}
