package judge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorim/verdicto/internal/domain"
	"github.com/dmorim/verdicto/internal/llm"
)

// fakeClient scripts the inference client for orchestrator tests.
type fakeClient struct {
	fn    func(req llm.SubmitRequest) llm.Result
	calls atomic.Int64
}

func (f *fakeClient) Submit(_ context.Context, req llm.SubmitRequest) llm.Result {
	f.calls.Add(1)
	return f.fn(req)
}

func okResult(content string) llm.Result {
	return llm.Result{Success: true, Content: content}
}

func testPairs(n int) []domain.SentencePair {
	pairs := make([]domain.SentencePair, n)
	for i := range pairs {
		pairs[i] = domain.SentencePair{
			SourceText:     fmt.Sprintf("source %d", i),
			TargetText:     fmt.Sprintf("target %d", i),
			SourceLanguage: "en",
			TargetLanguage: "pt",
			Key:            domain.RowKey{Position: i + 1, Row: i},
		}
	}
	return pairs
}

// TestJudger_ResultCountInvariant verifies the batch contract: the result
// count equals the full cross-product Σ(instances × pairs) no matter how
// many individual tasks fail.
func TestJudger_ResultCountInvariant(t *testing.T) {
	client := &fakeClient{fn: func(req llm.SubmitRequest) llm.Result {
		if req.Model == "flaky" {
			return llm.Result{Err: "connection refused"}
		}
		return okResult(`{"is_correct": true, "confidence_score": 0.9, "reasoning": "good"}`)
	}}

	pairs := testPairs(3)
	configs := []domain.ModelConfig{
		{Name: "steady", Instances: 2},
		{Name: "flaky", Instances: 3},
	}

	results := NewJudger(client).Run(context.Background(), pairs, configs, TemplateTranslation)

	require.Len(t, results, 15, "2*3 + 3*3 tasks expected")
	assert.EqualValues(t, 15, client.calls.Load())

	succeeded, failed := 0, 0
	for _, r := range results {
		if r.Success {
			succeeded++
			assert.Equal(t, "steady", r.Model)
		} else {
			failed++
			assert.Equal(t, "flaky", r.Model)
			assert.Equal(t, commFailureReasoning, r.Reasoning)
			assert.Equal(t, "connection refused", r.Err)
		}
	}
	assert.Equal(t, 6, succeeded)
	assert.Equal(t, 9, failed)
}

// TestJudger_AggregateByKey shows the supported consumption pattern:
// results arrive in completion order, so consumers group by the pair's row
// key and model, never by slice position.
func TestJudger_AggregateByKey(t *testing.T) {
	client := &fakeClient{fn: func(llm.SubmitRequest) llm.Result {
		return okResult(`{"is_correct": true, "confidence_score": 0.8, "reasoning": "fine"}`)
	}}

	pairs := testPairs(4)
	configs := []domain.ModelConfig{{Name: "m1", Instances: 2}, {Name: "m2", Instances: 1}}

	results := NewJudger(client).Run(context.Background(), pairs, configs, TemplateTranslation)

	type key struct {
		position int
		model    string
	}
	counts := make(map[key]int)
	for _, r := range results {
		counts[key{r.Pair.Key.Position, r.Model}]++
	}

	for _, p := range pairs {
		assert.Equal(t, 2, counts[key{p.Key.Position, "m1"}])
		assert.Equal(t, 1, counts[key{p.Key.Position, "m2"}])
	}
}

// TestJudger_PanicContainment verifies one misbehaving task becomes a
// placeholder failed result instead of aborting the batch.
func TestJudger_PanicContainment(t *testing.T) {
	client := &fakeClient{fn: func(req llm.SubmitRequest) llm.Result {
		if req.Model == "broken" {
			panic("simulated task failure")
		}
		return okResult(`{"is_correct": true, "confidence_score": 1, "reasoning": "ok"}`)
	}}

	pairs := testPairs(2)
	configs := []domain.ModelConfig{
		{Name: "fine", Instances: 1},
		{Name: "broken", Instances: 1},
	}

	results := NewJudger(client).Run(context.Background(), pairs, configs, TemplateTranslation)

	require.Len(t, results, 4)
	placeholders := 0
	for _, r := range results {
		if r.Success {
			continue
		}
		placeholders++
		assert.Equal(t, "unknown", r.Model)
		assert.Equal(t, domain.SentencePair{}, r.Pair)
		assert.Contains(t, r.Err, "simulated task failure")
	}
	assert.Equal(t, 2, placeholders)
}

func TestJudgePair_FixedLowTemperature(t *testing.T) {
	var seen atomic.Value
	client := &fakeClient{fn: func(req llm.SubmitRequest) llm.Result {
		seen.Store(req)
		return okResult(`{"is_correct": false, "confidence_score": 0.4, "reasoning": "awkward phrasing"}`)
	}}

	pair := testPairs(1)[0]
	res := NewJudger(client).JudgePair(context.Background(), pair, "m", TemplateQuality)

	req := seen.Load().(llm.SubmitRequest)
	assert.InDelta(t, judgeTemperature, req.Temperature, 1e-9)
	assert.Contains(t, req.Prompt, pair.SourceText)

	require.True(t, res.Success)
	assert.False(t, res.IsCorrect)
	assert.InDelta(t, 0.4, res.Confidence, 1e-9)
	assert.Equal(t, "awkward phrasing", res.Reasoning)
	assert.Equal(t, pair, res.Pair)
	assert.False(t, res.Timestamp.IsZero())
}

// TestJudger_ModelConfigOverridesSampling verifies a config's temperature
// and token cap reach the client, while unset values keep the fixed default.
func TestJudger_ModelConfigOverridesSampling(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]llm.SubmitRequest)
	client := &fakeClient{fn: func(req llm.SubmitRequest) llm.Result {
		mu.Lock()
		seen[req.Model] = req
		mu.Unlock()
		return okResult(`{"is_correct": true, "confidence_score": 1, "reasoning": "ok"}`)
	}}

	configs := []domain.ModelConfig{
		{Name: "default", Instances: 1},
		{Name: "tuned", Instances: 1, Temperature: 0.7, MaxTokens: 256},
	}

	NewJudger(client).Run(context.Background(), testPairs(1), configs, TemplateTranslation)

	assert.InDelta(t, judgeTemperature, seen["default"].Temperature, 1e-9)
	assert.Zero(t, seen["default"].MaxTokens)
	assert.InDelta(t, 0.7, seen["tuned"].Temperature, 1e-9)
	assert.Equal(t, 256, seen["tuned"].MaxTokens)
}

func TestJudgePair_UnparseableStillSucceeds(t *testing.T) {
	client := &fakeClient{fn: func(llm.SubmitRequest) llm.Result {
		return okResult("I think it is fine, yes.")
	}}

	res := NewJudger(client).JudgePair(context.Background(), testPairs(1)[0], "m", TemplateTranslation)

	require.True(t, res.Success, "parse degradation is not a task failure")
	assert.True(t, res.IsCorrect)
	assert.Contains(t, res.Reasoning, "unstructured model output")
}

func TestJudger_EmptyInputs(t *testing.T) {
	client := &fakeClient{fn: func(llm.SubmitRequest) llm.Result { return okResult("{}") }}

	results := NewJudger(client).Run(context.Background(), nil, nil, TemplateTranslation)
	assert.Empty(t, results)
	assert.Zero(t, client.calls.Load())
}
