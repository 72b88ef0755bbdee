package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScore(t *testing.T) {
	assert.InDelta(t, 0.8, NormalizeScore(8), 1e-9)
	assert.InDelta(t, 0.92, NormalizeScore(0.92), 1e-9)
	assert.Equal(t, 1.0, NormalizeScore(12))
	assert.Equal(t, 0.0, NormalizeScore(-3))
	assert.Equal(t, 0.0, NormalizeScore(0))
	assert.Equal(t, 1.0, NormalizeScore(1))
}

func TestNormalizeScoreIdempotent(t *testing.T) {
	for _, x := range []float64{-3, 0, 0.4, 0.92, 1, 5.5, 8, 10, 12} {
		once := NormalizeScore(x)
		assert.Equal(t, once, NormalizeScore(once), "re-normalizing %v changed the value", x)
	}
}

func TestNormalizeCleanJSON(t *testing.T) {
	raw := `{"ui_type":"dashboard","structure_note":"Two-column layout.","review_text":"Solid hierarchy.","tags":["clean","modern"],"scores":{"aesthetic":8,"usability":0.7}}`

	result := Normalize(raw)

	assert.Equal(t, ParseModeJSON, result.ParseMode)
	assert.Equal(t, "dashboard", result.UIType)
	assert.Equal(t, "Two-column layout.", result.StructureNote)
	assert.Equal(t, "Solid hierarchy.", result.ReviewText)
	assert.Equal(t, []string{"clean", "modern"}, result.Tags)
	assert.InDelta(t, 0.8, result.Scores[ScoreAesthetic], 1e-9)
	assert.InDelta(t, 0.7, result.Scores[ScoreUsability], 1e-9)
}

func TestNormalizeFencedJSON(t *testing.T) {
	raw := "```json\n{\"ui_type\":\"form\",\"structure_note\":\"Single column.\",\"review_text\":\"ok\",\"tags\":[\"minimal\"]}\n```"

	result := Normalize(raw)

	assert.Equal(t, ParseModeJSON, result.ParseMode)
	assert.Equal(t, "form", result.UIType)
	assert.Equal(t, []string{"minimal"}, result.Tags)
}

func TestNormalizeEmbeddedJSON(t *testing.T) {
	raw := `Here is my evaluation of the design:
{"ui_type":"landing-page","structure_note":"Hero with CTA.","review_text":"Strong focal point.","tags":["bold"]}
Hope this helps!`

	result := Normalize(raw)

	assert.Equal(t, ParseModeJSON, result.ParseMode)
	assert.Equal(t, "landing-page", result.UIType)
}

func TestNormalizeBracesInsideStrings(t *testing.T) {
	raw := `{"ui_type":"other","structure_note":"Uses {curly} placeholders.","review_text":"Braces { and } inside text.","tags":["templated"]}`

	result := Normalize(raw)

	require.Equal(t, ParseModeJSON, result.ParseMode)
	assert.Equal(t, "Uses {curly} placeholders.", result.StructureNote)
}

func TestNormalizeHeuristicStage(t *testing.T) {
	raw := `ui_type: dashboard
structure_note: Sidebar plus content grid
review_text: The layout reads well but contrast is weak
tags: [dense, data-heavy]
aesthetic: 7
usability: 6.5`

	result := Normalize(raw)

	assert.Equal(t, ParseModeHeuristic, result.ParseMode)
	assert.Equal(t, "dashboard", result.UIType)
	assert.Equal(t, "Sidebar plus content grid", result.StructureNote)
	assert.Equal(t, "The layout reads well but contrast is weak", result.ReviewText)
	assert.Equal(t, []string{"dense", "data-heavy"}, result.Tags)
	assert.InDelta(t, 0.7, result.Scores[ScoreAesthetic], 1e-9)
	assert.InDelta(t, 0.65, result.Scores[ScoreUsability], 1e-9)
}

func TestNormalizeFullyPopulatedInvariant(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":        "",
		"whitespace":   "   \n\t ",
		"prose only":   "I could not evaluate this image, sorry.",
		"broken json":  `{"ui_type": "dash`,
		"number array": "[1,2,3]",
	} {
		t.Run(name, func(t *testing.T) {
			result := Normalize(raw)
			assert.NotEmpty(t, result.UIType)
			assert.NotEmpty(t, result.StructureNote)
			assert.NotEmpty(t, result.ReviewText)
			assert.GreaterOrEqual(t, len(result.Tags), 1)
			assert.LessOrEqual(t, len(result.Tags), 5)
		})
	}
}

func TestNormalizeDefaultsWhenFieldsMissing(t *testing.T) {
	result := Normalize(`{"review_text":"Only a review."}`)

	assert.Equal(t, "other", result.UIType)
	assert.Equal(t, []string{"needs-review"}, result.Tags)
	assert.Equal(t, "Only a review.", result.ReviewText)
	assert.NotEmpty(t, result.StructureNote)
}

func TestNormalizeCapsFieldsAndTags(t *testing.T) {
	long := strings.Repeat("a", 900)
	raw := `{"ui_type":"other","structure_note":"` + long + `","review_text":"x","tags":["a","b","c","d","e","f","g"]}`

	result := Normalize(raw)

	assert.LessOrEqual(t, len([]rune(result.StructureNote)), maxFieldLen+3) // "..." suffix
	assert.Len(t, result.Tags, 5)
}

func TestNormalizeDropsNonStringTags(t *testing.T) {
	raw := `{"ui_type":"form","structure_note":"s","review_text":"r","tags":["ok", 42, null, {"x":1}, "DUP", "dup"]}`

	result := Normalize(raw)

	assert.Equal(t, []string{"ok", "dup"}, result.Tags)
}

func TestNormalizeScoresCoercion(t *testing.T) {
	raw := `{"ui_type":"form","structure_note":"s","review_text":"r","tags":["t"],"scores":{"aesthetic":"8.5","usability":true,"alignment":-2}}`

	result := Normalize(raw)

	assert.InDelta(t, 0.85, result.Scores[ScoreAesthetic], 1e-9)
	assert.NotContains(t, result.Scores, ScoreUsability)
	assert.Equal(t, 0.0, result.Scores[ScoreAlignment])
}

func TestFallbackCompleteness(t *testing.T) {
	in := EvaluationInput{ImageRef: "https://example.com/a.png", ProjectContext: "Demo project", Index: 1}

	result := Fallback(in, "401 unauthorized")

	assert.Equal(t, ParseModeFallback, result.ParseMode)
	assert.NotEmpty(t, result.UIType)
	assert.NotEmpty(t, result.StructureNote)
	assert.Contains(t, result.ReviewText, "401 unauthorized")
	assert.Equal(t, []string{"needs-review", "manual-review-recommended"}, result.Tags)
	assert.Empty(t, result.Scores)
}

func TestFallbackMentionsItemPosition(t *testing.T) {
	result := Fallback(EvaluationInput{Index: 3}, "")
	assert.Contains(t, result.StructureNote, "4")
}

func TestFirstBalancedObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, firstBalancedObject(`junk {"a":1} trailing`))
	assert.Equal(t, `{"a":{"b":2}}`, firstBalancedObject(`{"a":{"b":2}} {"c":3}`))
	assert.Equal(t, "", firstBalancedObject("no object here"))
	assert.Equal(t, "", firstBalancedObject(`{"unterminated": 1`))
}
