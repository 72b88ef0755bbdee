package evaluation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxFieldLen = 500
	maxTags     = 5

	defaultUIType = "other"
)

var defaultTags = []string{"needs-review"}

// fallbackTags mark results substituted for a failed invocation; they carry
// an extra marker so reviewers can filter them from merely-degraded parses.
var fallbackTags = []string{"needs-review", "manual-review-recommended"}

// NormalizeScore maps a raw model score onto [0,1]. Upstream prompts
// inconsistently return a 0-1 fraction or a 0-10 rating, so anything above 1
// is read as out-of-ten. Idempotent: re-normalizing is a no-op.
func NormalizeScore(x float64) float64 {
	if x > 1 {
		x = x / 10
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Normalize repairs raw model output into a fully-populated result. It never
// fails: JSON decoding is tried first, then per-field heuristic extraction,
// then fixed defaults for whatever is still missing.
func Normalize(raw string) EvaluationResult {
	parsed, mode := parseRaw(raw)

	result := EvaluationResult{
		UIType:        cleanField(parsed.UIType),
		StructureNote: cleanField(parsed.StructureNote),
		ReviewText:    cleanField(parsed.ReviewText),
		Tags:          cleanTags(parsed.Tags),
		Scores:        normalizeScores(parsed.Scores),
		ParseMode:     mode,
	}

	if result.UIType == "" {
		result.UIType = defaultUIType
	}
	if result.StructureNote == "" {
		result.StructureNote = "Structure could not be determined from the model response."
	}
	if result.ReviewText == "" {
		result.ReviewText = truncateText(strings.TrimSpace(raw), maxFieldLen)
	}
	if result.ReviewText == "" {
		result.ReviewText = "The model returned no usable review text."
	}
	if len(result.Tags) == 0 {
		result.Tags = append([]string(nil), defaultTags...)
	}
	return result
}

// Fallback builds the deterministic substitute for an item whose invocation
// failed. Same shape as a parsed result; flagged for manual review.
func Fallback(in EvaluationInput, reason string) EvaluationResult {
	note := fmt.Sprintf("Automatic evaluation of image %d was not completed.", in.Index+1)
	if ctx := strings.TrimSpace(in.ProjectContext); ctx != "" {
		note = fmt.Sprintf("Automatic evaluation of image %d for %q was not completed.", in.Index+1, truncateText(ctx, 80))
	}
	review := "This design could not be evaluated automatically and needs a manual review."
	if strings.TrimSpace(reason) != "" {
		review = fmt.Sprintf("This design could not be evaluated automatically (%s) and needs a manual review.", truncateText(strings.TrimSpace(reason), 200))
	}
	return EvaluationResult{
		UIType:        defaultUIType,
		StructureNote: note,
		ReviewText:    review,
		Tags:          append([]string(nil), fallbackTags...),
		ParseMode:     ParseModeFallback,
	}
}

// parsedResponse is the loose decoding target; values are coerced afterwards.
type parsedResponse struct {
	UIType        string
	StructureNote string
	ReviewText    string
	Tags          []interface{}
	Scores        map[string]interface{}
}

func parseRaw(raw string) (parsedResponse, ParseMode) {
	if parsed, ok := parseJSONStage(raw); ok {
		return parsed, ParseModeJSON
	}
	return parseHeuristicStage(raw), ParseModeHeuristic
}

// parseJSONStage locates one well-formed JSON object in the raw text: the
// whole blob after stripping code fences, or the first balanced {...} block.
func parseJSONStage(raw string) (parsedResponse, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	candidates := []string{cleaned}
	if block := firstBalancedObject(cleaned); block != "" && block != cleaned {
		candidates = append(candidates, block)
	}

	for _, candidate := range candidates {
		var decoded struct {
			UIType        string                 `json:"ui_type"`
			UITypeAlt     string                 `json:"uiType"`
			StructureNote string                 `json:"structure_note"`
			StructureAlt  string                 `json:"structureNote"`
			ReviewText    string                 `json:"review_text"`
			ReviewAlt     string                 `json:"reviewText"`
			Tags          []interface{}          `json:"tags"`
			Scores        map[string]interface{} `json:"scores"`
		}
		if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
			continue
		}
		parsed := parsedResponse{
			UIType:        firstNonEmpty(decoded.UIType, decoded.UITypeAlt),
			StructureNote: firstNonEmpty(decoded.StructureNote, decoded.StructureAlt),
			ReviewText:    firstNonEmpty(decoded.ReviewText, decoded.ReviewAlt),
			Tags:          decoded.Tags,
			Scores:        decoded.Scores,
		}
		// an object that carries none of the expected keys is not a hit
		if parsed.UIType == "" && parsed.StructureNote == "" && parsed.ReviewText == "" &&
			len(parsed.Tags) == 0 && len(parsed.Scores) == 0 {
			continue
		}
		return parsed, true
	}
	return parsedResponse{}, false
}

// firstBalancedObject scans for the first top-level {...} block, tracking
// string literals so braces inside quoted text do not unbalance the count.
func firstBalancedObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

var (
	uiTypeRe    = regexp.MustCompile(`(?im)^\s*"?(?:ui[_\s-]?type)"?\s*[:：]\s*(.+)$`)
	structureRe = regexp.MustCompile(`(?im)^\s*"?(?:structure[_\s-]?note|structure|layout)"?\s*[:：]\s*(.+)$`)
	reviewRe    = regexp.MustCompile(`(?im)^\s*"?(?:review[_\s-]?text|review|critique)"?\s*[:：]\s*(.+)$`)
	tagsRe      = regexp.MustCompile(`(?is)"?tags"?\s*[:：]\s*\[(.*?)\]`)
	tagsLineRe  = regexp.MustCompile(`(?im)^\s*"?tags"?\s*[:：]\s*(.+)$`)
)

var scoreRes = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(scoreCategories))
	for _, category := range scoreCategories {
		out[category] = regexp.MustCompile(`(?i)"?` + category + `"?\s*[:：]\s*(-?[0-9]+(?:\.[0-9]+)?)`)
	}
	return out
}()

// parseHeuristicStage recovers what it can from non-JSON output with
// per-field key:value extractors.
func parseHeuristicStage(raw string) parsedResponse {
	parsed := parsedResponse{}

	if m := uiTypeRe.FindStringSubmatch(raw); m != nil {
		parsed.UIType = m[1]
	}
	if m := structureRe.FindStringSubmatch(raw); m != nil {
		parsed.StructureNote = m[1]
	}
	if m := reviewRe.FindStringSubmatch(raw); m != nil {
		parsed.ReviewText = m[1]
	}

	if m := tagsRe.FindStringSubmatch(raw); m != nil {
		for _, tag := range strings.Split(m[1], ",") {
			parsed.Tags = append(parsed.Tags, tag)
		}
	} else if m := tagsLineRe.FindStringSubmatch(raw); m != nil {
		for _, tag := range strings.Split(m[1], ",") {
			parsed.Tags = append(parsed.Tags, tag)
		}
	}

	for category, re := range scoreRes {
		if m := re.FindStringSubmatch(raw); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				if parsed.Scores == nil {
					parsed.Scores = make(map[string]interface{})
				}
				parsed.Scores[category] = v
			}
		}
	}
	return parsed
}

// cleanField trims whitespace, strips wrapping quotes and a trailing comma
// left over from line extraction, and caps the length.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",")
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	return truncateText(s, maxFieldLen)
}

func cleanTags(raw []interface{}) []string {
	tags := make([]string, 0, maxTags)
	seen := make(map[string]bool, maxTags)
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(cleanField(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tags = append(tags, s)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

func normalizeScores(raw map[string]interface{}) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	scores := make(map[string]float64)
	for _, category := range scoreCategories {
		value, ok := raw[category]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			scores[category] = NormalizeScore(v)
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				scores[category] = NormalizeScore(parsed)
			}
		}
	}
	if len(scores) == 0 {
		return nil
	}
	return scores
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
