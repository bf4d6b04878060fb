// Package judge turns sentence pairs into structured judgments: it renders
// prompts, runs them through the inference client under the client's
// concurrency cap, and parses whatever text a model returns into a
// range-valid Judgment.
package judge

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmorim/verdicto/internal/domain"
)

// Required judgment fields in model output.
const (
	fieldIsCorrect  = "is_correct"
	fieldConfidence = "confidence_score"
	fieldReasoning  = "reasoning"
)

// defaultConfidence substitutes a missing or non-numeric confidence value.
const defaultConfidence = 0.5

// rawEchoLimit caps how much raw model output the fallback reasoning echoes.
const rawEchoLimit = 200

var errNoObject = errors.New("no judgment object found in response")

// Field-level extraction patterns for responses where the JSON is mangled
// but the individual fields are still recognizable.
var (
	isCorrectPattern  = regexp.MustCompile(`(?i)"is_correct"\s*:\s*(true|false)`)
	confidencePattern = regexp.MustCompile(`"confidence_score"\s*:\s*([0-9]+\.?[0-9]*)`)
	reasoningPattern  = regexp.MustCompile(`"reasoning"\s*:\s*"([^"]*)"`)

	// keywordConfidencePattern finds a number following the word
	// "confidence" anywhere in lowercased free text.
	keywordConfidencePattern = regexp.MustCompile(`confidence[:\s]*([0-9]+\.?[0-9]*)`)
)

// affirmations is the multilingual lexicon scanned by the keyword fallback.
var affirmations = []string{"correct", "true", "correto", "verdadeiro", "sim", "yes"}

// objectStrategy attempts to recover a structured judgment object from raw
// model output. Strategies are pure and independent; they are tried in order
// and the first success wins.
type objectStrategy func(raw string) (map[string]any, bool)

// objectStrategies is the ordered fallback chain for object recovery.
// parseEnclosedJSON handles well-formed output, optionally fenced;
// parseFieldRegex synthesizes an object from recognizable fields when the
// surrounding JSON is broken.
var objectStrategies = []objectStrategy{
	parseEnclosedJSON,
	parseFieldRegex,
}

// Parse turns arbitrary model output into a structured judgment. It never
// fails: when no object can be recovered, a keyword heuristic over the raw
// text produces a best-effort judgment whose reasoning notes the degradation.
// The returned confidence is always within [0,1].
func Parse(raw string) domain.Judgment {
	for _, strat := range objectStrategies {
		obj, ok := strat(raw)
		if !ok {
			continue
		}
		jd, err := coerceObject(obj)
		if err != nil {
			// Object recovered but unusable; fall through to the
			// keyword heuristic with the validation error.
			return keywordFallback(raw, err)
		}
		return jd
	}
	return keywordFallback(raw, errNoObject)
}

// stripFences removes surrounding markdown code-fence markers.
func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// parseEnclosedJSON locates the first '{' and the last '}' in the
// fence-stripped text and attempts a strict parse of that substring.
func parseEnclosedJSON(raw string) (map[string]any, bool) {
	clean := stripFences(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(clean[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// parseFieldRegex extracts the three required fields individually from the
// raw text and synthesizes a minimal object. All three must be found.
func parseFieldRegex(raw string) (map[string]any, bool) {
	clean := stripFences(raw)

	correct := isCorrectPattern.FindStringSubmatch(clean)
	confidence := confidencePattern.FindStringSubmatch(clean)
	reasoning := reasoningPattern.FindStringSubmatch(clean)
	if correct == nil || confidence == nil || reasoning == nil {
		return nil, false
	}

	conf, err := strconv.ParseFloat(confidence[1], 64)
	if err != nil {
		return nil, false
	}
	return map[string]any{
		fieldIsCorrect:  strings.EqualFold(correct[1], "true"),
		fieldConfidence: conf,
		fieldReasoning:  reasoning[1],
	}, true
}

// coerceObject validates presence of the required fields and coerces loose
// typing: a non-boolean correctness value by truthiness, a non-numeric
// confidence to the default, and confidence clamped into [0,1].
func coerceObject(obj map[string]any) (domain.Judgment, error) {
	for _, field := range []string{fieldIsCorrect, fieldConfidence, fieldReasoning} {
		if _, ok := obj[field]; !ok {
			return domain.Judgment{}, fmt.Errorf("required field %q missing", field)
		}
	}

	confidence := defaultConfidence
	if n, ok := obj[fieldConfidence].(float64); ok {
		confidence = n
	}

	reasoning, ok := obj[fieldReasoning].(string)
	if !ok {
		reasoning = fmt.Sprint(obj[fieldReasoning])
	}

	return domain.Judgment{
		IsCorrect:  truthy(obj[fieldIsCorrect]),
		Confidence: domain.ClampConfidence(confidence),
		Reasoning:  reasoning,
	}, nil
}

// truthy applies loose truthiness to a decoded JSON value: false, zero
// numbers, empty strings, and null are false; everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}

// keywordFallback is the last resort when no object could be recovered.
// Correctness comes from scanning lowercased text for affirmation tokens;
// confidence from a number following the word "confidence", treated as a
// percentage when it exceeds 1; reasoning echoes the truncated raw text
// together with the parse failure description.
func keywordFallback(raw string, parseErr error) domain.Judgment {
	lower := strings.ToLower(raw)

	isCorrect := false
	for _, word := range affirmations {
		if strings.Contains(lower, word) {
			isCorrect = true
			break
		}
	}

	confidence := defaultConfidence
	if m := keywordConfidencePattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			if n > 1 {
				n /= 100
			}
			confidence = n
		}
	}

	echo := raw
	if len(echo) > rawEchoLimit {
		echo = echo[:rawEchoLimit] + "..."
	}

	return domain.Judgment{
		IsCorrect:  isCorrect,
		Confidence: domain.ClampConfidence(confidence),
		Reasoning:  fmt.Sprintf("unstructured model output: %s (parse failure: %v)", echo, parseErr),
	}
}
