// Package domain defines the value types shared by the judgment engine:
// model configurations, sentence pairs under evaluation, structured judgments,
// and the results produced by a batch run.
//
// All types are immutable values. A JudgmentResult is produced exactly once
// per task by the orchestrator and never mutated afterwards.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Domain validation errors.
var (
	// ErrInvalidModelConfig indicates a model configuration failed validation.
	ErrInvalidModelConfig = errors.New("invalid model config")
)

// validate is the shared validator instance for struct tag rules.
var validate = validator.New()

// ModelConfig describes one model participating in a batch run and how many
// independent instances of it should judge each pair.
type ModelConfig struct {
	// Name is the model identifier as known by the inference endpoint,
	// e.g. "llama3.1:8b".
	Name string `json:"name" validate:"required"`

	// Instances is the number of independent repeated judgments of the
	// same pair by this model, used to sample variance in model output.
	Instances int `json:"instances" validate:"required,min=1"`

	// Temperature overrides the sampling temperature for this model.
	Temperature float64 `json:"temperature" validate:"min=0,max=2"`

	// MaxTokens caps the model's output length.
	MaxTokens int `json:"max_tokens" validate:"min=0"`
}

// Validate checks the configuration against its struct tag rules.
func (c ModelConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidModelConfig, err)
	}
	return nil
}

// RowKey correlates a sentence pair back to the dataset row it was extracted
// from. Position is the authoritative correlation key: a dense, 1-based index
// over only the rows that survived the extraction filter. Row is the original
// zero-based table index kept alongside for diagnostics.
//
// A zero RowKey marks a manually constructed pair with no dataset origin.
type RowKey struct {
	Position int `json:"position"`
	Row      int `json:"row"`
}

// Tagged reports whether the key was assigned by dataset extraction.
func (k RowKey) Tagged() bool { return k.Position > 0 }

// SentencePair is the source/target text unit under evaluation.
type SentencePair struct {
	SourceText     string `json:"source_text"`
	TargetText     string `json:"target_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`

	// Context optionally carries extra material the judge may consider.
	Context string `json:"context,omitempty"`

	// Key ties the pair to its dataset row. Zero for manual pairs.
	Key RowKey `json:"key,omitempty"`
}

// Judgment is the structured verdict a model renders for one sentence pair.
// Confidence is always within [0,1] by construction.
type Judgment struct {
	IsCorrect  bool    `json:"is_correct"`
	Confidence float64 `json:"confidence_score" validate:"min=0,max=1"`
	Reasoning  string  `json:"reasoning"`
}

// JudgmentResult is the outcome of one judgment task: a (pair, model,
// instance) triple run through the inference client and response parser.
// Success=false results carry the failure description in Err; their
// judgment fields hold zero values.
type JudgmentResult struct {
	Model      string       `json:"model"`
	Pair       SentencePair `json:"sentence_pair"`
	IsCorrect  bool         `json:"is_correct"`
	Confidence float64      `json:"confidence_score"`
	Reasoning  string       `json:"reasoning"`
	Timestamp  time.Time    `json:"timestamp"`
	Success    bool         `json:"success"`
	Err        string       `json:"error,omitempty"`
}

// Verdict labels written to the dataset's verdict column.
const (
	VerdictCorrect   = "Correct"
	VerdictIncorrect = "Incorrect"
)

// VerdictLabel maps a correctness boolean to its column label.
func VerdictLabel(correct bool) string {
	if correct {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// TimestampLayout is the format used when writing result timestamps to the
// annotated dataset.
const TimestampLayout = "2006-01-02 15:04:05"

// ClampConfidence forces a confidence value into [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
