package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fragent/fragent-go/pkg/core"
	"github.com/fragent/fragent-go/pkg/llm"
)

func newAgentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Create and list agents",
	}

	var (
		systemPrompt string
		provider     string
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an agent and print its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := core.NewAgent(args[0])
			agent.SystemPrompt = systemPrompt
			if provider != "" {
				agent.IntegrationSettings = map[string]interface{}{"provider": provider}
			}
			created, err := a.client.CreateAgent(contextFor(cmd), agent)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return err
		},
	}
	create.Flags().StringVar(&systemPrompt, "system-prompt", "", "agent system prompt")
	create.Flags().StringVar(&provider, "provider", "", "LLM provider for this agent")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agents, err := a.client.ListAgents(contextFor(cmd), limit, 0)
			if err != nil {
				return err
			}
			for _, agent := range agents {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", agent.ID, agent.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "maximum number of agents (0 for all)")

	cmd.AddCommand(create, list)
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var agentID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print memory counts per type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.client.GetMemoryStats(contextFor(cmd), agentID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "restrict counts to one agent")
	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired temporary or execution memories",
	}

	var (
		days          int
		temporaryFrom string
	)
	temporary := &cobra.Command{
		Use:   "temporary",
		Short: "Delete temporary memories older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deleted, err := a.client.CleanupTemporaryMemories(contextFor(cmd), days, core.WithCleanupAgentID(temporaryFrom))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d temporary memories\n", deleted)
			return err
		},
	}
	temporary.Flags().IntVar(&days, "days", 7, "age threshold in days (1-365)")
	temporary.Flags().StringVar(&temporaryFrom, "agent", "", "restrict cleanup to one agent")

	var (
		hours         int
		executionFrom string
	)
	execution := &cobra.Command{
		Use:   "execution",
		Short: "Delete execution memories older than --hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deleted, err := a.client.CleanupExecutionMemories(contextFor(cmd), hours, core.WithCleanupAgentID(executionFrom))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d execution memories\n", deleted)
			return err
		},
	}
	execution.Flags().IntVar(&hours, "hours", 24, "age threshold in hours (1-720)")
	execution.Flags().StringVar(&executionFrom, "agent", "", "restrict cleanup to one agent")

	cmd.AddCommand(temporary, execution)
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run both cleanups with the configured thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Sweep(contextFor(cmd))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d temporary and %d execution memories\n",
				res.Temporary, res.Execution)
			return err
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "ask <agent-id> <message>",
		Short: "Send one message to an agent and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args[1:], " ")
			res, err := a.client.Interact(contextFor(cmd), args[0], message, core.WithHistory(!noHistory))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Response)
			return err
		},
	}
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not replay previous memories")
	return cmd
}

func newTriggerCmd(a *app) *cobra.Command {
	var eventType, source string
	cmd := &cobra.Command{
		Use:   "trigger <agent-id> <content>",
		Short: "Deliver an event to an agent and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.TriggerEvent(contextFor(cmd), args[0], core.Event{
				Type:    eventType,
				Source:  source,
				Content: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Response)
			return err
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "event type, also used as task type (required)")
	cmd.Flags().StringVar(&source, "source", "cli", "event source")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newProviderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage LLM provider settings",
	}

	var (
		host, apiKey, model string
		makeDefault         bool
	)
	set := &cobra.Command{
		Use:   "set <name>",
		Short: "Store credentials for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := llm.ParseProviderName(args[0])
			if !ok {
				return fmt.Errorf("unsupported provider %q (want one of %v)", args[0], llm.ProviderNames)
			}
			ctx := contextFor(cmd)
			err := a.client.SetProviderSettings(ctx, name, core.ProviderCredentials{
				APIKey:       apiKey,
				Host:         host,
				DefaultModel: model,
			})
			if err != nil {
				return err
			}
			if makeDefault {
				if err := a.client.SetDefaultProvider(ctx, name); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved settings for %s\n", name)
			return err
		},
	}
	set.Flags().StringVar(&host, "host", "", "provider base URL")
	set.Flags().StringVar(&apiKey, "api-key", "", "provider API key")
	set.Flags().StringVar(&model, "model", "", "default model")
	set.Flags().BoolVar(&makeDefault, "default", false, "also make this the default provider")

	cmd.AddCommand(set)
	return cmd
}
