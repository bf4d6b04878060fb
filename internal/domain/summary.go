package domain

// ModelStats aggregates the outcomes of one model across a batch run.
type ModelStats struct {
	Model          string  `json:"model"`
	Total          int     `json:"total"`
	Correct        int     `json:"correct"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Accuracy returns the fraction of judgments this model marked correct.
func (s ModelStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Summary aggregates a batch run's results for reporting. Judgment fields
// (Correct, MeanConfidence, PerModel) cover successful results only;
// failed tasks contribute to Failed and Total.
type Summary struct {
	Total          int          `json:"total"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	Correct        int          `json:"correct"`
	MeanConfidence float64      `json:"mean_confidence"`
	PerModel       []ModelStats `json:"per_model"`
}

// Summarize folds batch results into per-run and per-model statistics.
// Consumers must aggregate by logical key rather than result order, so the
// per-model breakdown is keyed by model name and reported in first-seen order.
func Summarize(results []JudgmentResult) Summary {
	var s Summary
	s.Total = len(results)

	byModel := make(map[string]int)
	confSums := make(map[string]float64)
	var confTotal float64

	for _, r := range results {
		if !r.Success {
			s.Failed++
			continue
		}
		s.Succeeded++
		if r.IsCorrect {
			s.Correct++
		}
		confTotal += r.Confidence

		idx, seen := byModel[r.Model]
		if !seen {
			idx = len(s.PerModel)
			byModel[r.Model] = idx
			s.PerModel = append(s.PerModel, ModelStats{Model: r.Model})
		}
		s.PerModel[idx].Total++
		if r.IsCorrect {
			s.PerModel[idx].Correct++
		}
		confSums[r.Model] += r.Confidence
	}

	if s.Succeeded > 0 {
		s.MeanConfidence = confTotal / float64(s.Succeeded)
	}
	for i := range s.PerModel {
		if s.PerModel[i].Total > 0 {
			s.PerModel[i].MeanConfidence = confSums[s.PerModel[i].Model] / float64(s.PerModel[i].Total)
		}
	}
	return s
}
