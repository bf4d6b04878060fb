package judge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmorim/verdicto/internal/domain"
	"github.com/dmorim/verdicto/internal/llm"
)

// judgeTemperature is the fixed per-task sampling temperature, kept low for
// consistency across repeated judgments of the same pair.
const judgeTemperature = 0.1

// commFailureReasoning annotates results whose inference call never
// succeeded.
const commFailureReasoning = "model communication failure"

// InferenceClient is the slice of the LLM client the judger depends on.
type InferenceClient interface {
	Submit(ctx context.Context, req llm.SubmitRequest) llm.Result
}

// Judger orchestrates judgment batches: it expands pairs, model configs,
// and instance counts into independent tasks, fans them out concurrently,
// and collects results as they complete. Network parallelism is capped
// transitively by the client's semaphore; the judger imposes no cap of its
// own and creates all tasks eagerly.
type Judger struct {
	client InferenceClient
	logger *slog.Logger
}

// NewJudger creates an orchestrator on top of an inference client.
func NewJudger(client InferenceClient) *Judger {
	return &Judger{
		client: client,
		logger: slog.Default().With("component", "judge"),
	}
}

// JudgePair runs one judgment task at the fixed low temperature: render the
// prompt, call the client, and parse the response. Client failure yields a
// Success=false result carrying the client's error; JudgePair never returns
// a Go error.
func (j *Judger) JudgePair(ctx context.Context, pair domain.SentencePair, model string, kind TemplateKind) domain.JudgmentResult {
	return j.judgeOne(ctx, pair, kind, sampling{model: model, temperature: judgeTemperature})
}

// sampling carries the per-task inference parameters resolved from a model
// config.
type sampling struct {
	model       string
	temperature float64
	maxTokens   int
}

// resolveSampling applies the fixed judgment temperature unless the model
// config overrides it.
func resolveSampling(cfg domain.ModelConfig) sampling {
	s := sampling{model: cfg.Name, temperature: judgeTemperature, maxTokens: cfg.MaxTokens}
	if cfg.Temperature > 0 {
		s.temperature = cfg.Temperature
	}
	return s
}

func (j *Judger) judgeOne(ctx context.Context, pair domain.SentencePair, kind TemplateKind, s sampling) domain.JudgmentResult {
	prompt := FormatPrompt(kind, pair)

	res := j.client.Submit(ctx, llm.SubmitRequest{
		Prompt:      prompt,
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if !res.Success {
		return domain.JudgmentResult{
			Model:     s.model,
			Pair:      pair,
			Reasoning: commFailureReasoning,
			Timestamp: time.Now(),
			Success:   false,
			Err:       res.Err,
		}
	}

	jd := Parse(res.Content)
	return domain.JudgmentResult{
		Model:      s.model,
		Pair:       pair,
		IsCorrect:  jd.IsCorrect,
		Confidence: jd.Confidence,
		Reasoning:  jd.Reasoning,
		Timestamp:  time.Now(),
		Success:    true,
	}
}

// task is one (pair, model, instance) judgment unit.
type task struct {
	pair     domain.SentencePair
	sampling sampling
	instance int
}

// Run executes the full cross-product of pairs, configs, and instance
// counts and returns exactly Σ(config.Instances × len(pairs)) results,
// regardless of individual task failures. Results arrive in completion
// order, which is unrelated to submission order; consumers must correlate
// by the pair's row key and model, never by slice position.
func (j *Judger) Run(ctx context.Context, pairs []domain.SentencePair, configs []domain.ModelConfig, kind TemplateKind) []domain.JudgmentResult {
	var tasks []task
	for _, cfg := range configs {
		s := resolveSampling(cfg)
		for _, pair := range pairs {
			for i := 0; i < cfg.Instances; i++ {
				tasks = append(tasks, task{pair: pair, sampling: s, instance: i})
			}
		}
	}

	j.logger.Info("starting judgment batch",
		"tasks", len(tasks),
		"pairs", len(pairs),
		"models", len(configs),
		"template", kind)

	results := make(chan domain.JudgmentResult, len(tasks))
	for _, t := range tasks {
		go func(t task) {
			// One misbehaving task must not abort the batch; a panic
			// becomes a placeholder failed result so the result count
			// invariant holds.
			defer func() {
				if r := recover(); r != nil {
					j.logger.Error("judgment task panicked",
						"model", t.sampling.model,
						"instance", t.instance,
						"panic", r)
					results <- placeholderResult(r)
				}
			}()
			results <- j.judgeOne(ctx, t.pair, kind, t.sampling)
		}(t)
	}

	out := make([]domain.JudgmentResult, 0, len(tasks))
	for completed := 1; completed <= len(tasks); completed++ {
		r := <-results
		out = append(out, r)
		j.logger.Info("judgment completed",
			"progress", fmt.Sprintf("%d/%d", completed, len(tasks)),
			"model", r.Model,
			"success", r.Success,
			"confidence", r.Confidence)
	}
	return out
}

// placeholderResult stands in for a task that failed outside the modeled
// error paths. The sentence pair is a sentinel empty pair.
func placeholderResult(cause any) domain.JudgmentResult {
	return domain.JudgmentResult{
		Model:     "unknown",
		Pair:      domain.SentencePair{},
		Reasoning: fmt.Sprintf("unhandled judgment failure: %v", cause),
		Timestamp: time.Now(),
		Success:   false,
		Err:       fmt.Sprint(cause),
	}
}
