// Command verdicto judges sentence pairs (typically source sentences and
// their candidate translations) with local language models served by an
// Ollama endpoint, and writes the verdicts back onto the dataset.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmorim/verdicto/internal/configuration"
	"github.com/dmorim/verdicto/internal/llm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *configuration.Config
	client *llm.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "verdicto",
		Short:         "Judge sentence pairs with local language models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configuration.Load(cmd.Context())
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)

			client, err := llm.NewClient(cfg)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.client = client
			return nil
		},
	}

	root.AddCommand(newJudgeCmd(a), newModelsCmd(a), newPingCmd(a))
	return root
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the inference endpoint is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.client.TestConnection(cmd.Context()) {
				return fmt.Errorf("endpoint %s is not reachable", a.cfg.Endpoint)
			}
			fmt.Printf("endpoint %s is up\n", a.cfg.Endpoint)
			return nil
		},
	}
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available at the inference endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			models := a.client.ListModels(cmd.Context())
			if len(models) == 0 {
				fmt.Println("no models available")
				return nil
			}
			for _, m := range models {
				fmt.Println(m)
			}
			return nil
		},
	}
}
