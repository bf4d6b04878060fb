package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmorim/verdicto/internal/dataset"
	"github.com/dmorim/verdicto/internal/domain"
	"github.com/dmorim/verdicto/internal/judge"
)

type judgeOptions struct {
	input      string
	output     string
	sourceCol  string
	targetCol  string
	sourceLang string
	targetLang string
	models     []string
	template   string
	encoding   string
}

func newJudgeCmd(a *app) *cobra.Command {
	opts := &judgeOptions{}

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Judge every pair in a CSV dataset and write the annotated copy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJudge(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input CSV path (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output CSV path (default: <input>_judged.csv)")
	cmd.Flags().StringVar(&opts.sourceCol, "source-col", "", "column holding the source text (required)")
	cmd.Flags().StringVar(&opts.targetCol, "target-col", "", "column holding the target text (required)")
	cmd.Flags().StringVar(&opts.sourceLang, "source-lang", "auto", "source language label")
	cmd.Flags().StringVar(&opts.targetLang, "target-lang", "auto", "target language label")
	cmd.Flags().StringArrayVarP(&opts.models, "model", "m", nil, "model spec name[=instances], repeatable (required)")
	cmd.Flags().StringVar(&opts.template, "template", string(judge.TemplateTranslation), "prompt template: translation, semantic, or quality")
	cmd.Flags().StringVar(&opts.encoding, "encoding", dataset.EncodingUTF8, "output text encoding")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("source-col")
	_ = cmd.MarkFlagRequired("target-col")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func runJudge(cmd *cobra.Command, a *app, opts *judgeOptions) error {
	configs, err := parseModelSpecs(opts.models)
	if err != nil {
		return err
	}

	table, err := dataset.LoadCSV(opts.input)
	if err != nil {
		return err
	}

	rec := dataset.NewReconciler(opts.sourceCol, opts.targetCol, opts.sourceLang, opts.targetLang)
	stats, err := rec.Describe(table)
	if err != nil {
		return err
	}
	fmt.Printf("dataset %s: %d rows, %d columns, %d judgeable pairs\n",
		opts.input, stats.Rows, stats.Columns, stats.ValidRows)

	pairs, err := rec.Extract(table)
	if err != nil {
		return err
	}

	judger := judge.NewJudger(a.client)
	results := judger.Run(cmd.Context(), pairs, configs, judge.TemplateKind(opts.template))

	annotated, err := rec.Merge(table, results)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		ext := filepath.Ext(opts.input)
		output = strings.TrimSuffix(opts.input, ext) + "_judged" + ext
	}
	if err := dataset.SaveCSV(annotated, output, opts.encoding); err != nil {
		return err
	}

	printSummary(domain.Summarize(results), output)
	return nil
}

// parseModelSpecs turns repeated name[=instances] flags into model configs.
func parseModelSpecs(specs []string) ([]domain.ModelConfig, error) {
	configs := make([]domain.ModelConfig, 0, len(specs))
	for _, spec := range specs {
		name, instStr, hasInstances := strings.Cut(spec, "=")
		instances := 1
		if hasInstances {
			n, err := strconv.Atoi(instStr)
			if err != nil {
				return nil, fmt.Errorf("model spec %q: instances must be an integer", spec)
			}
			instances = n
		}

		cfg := domain.ModelConfig{Name: strings.TrimSpace(name), Instances: instances}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("model spec %q: %w", spec, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func printSummary(s domain.Summary, output string) {
	fmt.Printf("\n=== Judgment summary ===\n")
	fmt.Printf("tasks:      %d (%d succeeded, %d failed)\n", s.Total, s.Succeeded, s.Failed)
	if s.Succeeded > 0 {
		fmt.Printf("correct:    %d/%d (%.1f%%)\n", s.Correct, s.Succeeded, 100*float64(s.Correct)/float64(s.Succeeded))
		fmt.Printf("confidence: %.2f mean\n", s.MeanConfidence)
	}
	for _, m := range s.PerModel {
		fmt.Printf("- %s: %d/%d correct (%.1f%%), confidence %.2f\n",
			m.Model, m.Correct, m.Total, 100*m.Accuracy(), m.MeanConfidence)
	}
	fmt.Printf("annotated dataset written to %s\n", output)
}
