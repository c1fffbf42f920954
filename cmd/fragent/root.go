package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fragent/fragent-go/pkg/core"
	"github.com/fragent/fragent-go/pkg/log"
	"github.com/fragent/fragent-go/pkg/metrics"
)

// app holds the state shared by every subcommand.
type app struct {
	configPath  string
	envFile     string
	metricsFile string
	client      *core.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fragent",
		Short:         "Administer fragent agents, memories and providers",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.close(); err != nil {
				return err
			}
			return a.dumpMetrics(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", ".env file to load instead of searching for one")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "",
		"write the command's Prometheus metrics to this file after it finishes (- for stderr)")

	root.AddCommand(
		newAgentCmd(a),
		newStatsCmd(a),
		newCleanupCmd(a),
		newSweepCmd(a),
		newAskCmd(a),
		newTriggerCmd(a),
		newProviderCmd(a),
	)
	return root
}

func (a *app) loadConfig() (*core.Config, error) {
	switch {
	case a.configPath != "":
		return core.LoadConfigFromFile(a.configPath)
	case a.envFile != "":
		return core.LoadConfigFromEnvFile(a.envFile)
	default:
		return core.LoadConfigFromEnv()
	}
}

// open builds the client. Logs go to stderr unless the configuration names
// a log file.
func (a *app) open(stderr io.Writer) error {
	if a.client != nil {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(stderr, &cfg.Log)
	if cfg.Log.File != "" {
		if logger, err = log.NewLogger(&cfg.Log); err != nil {
			return err
		}
	}

	client, err := core.NewClient(cfg, core.WithLogger(logger.Logger))
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *app) close() error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// dumpMetrics writes the metrics recorded while the command ran.
func (a *app) dumpMetrics(stderr io.Writer) error {
	switch a.metricsFile {
	case "":
		return nil
	case "-":
		return metrics.WritePrometheus(stderr)
	}
	f, err := os.Create(a.metricsFile)
	if err != nil {
		return err
	}
	if err := metrics.WritePrometheus(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func contextFor(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
