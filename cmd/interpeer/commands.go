package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/terminal"
)

func (a *app) load() (*config.LoadResult, error) {
	root, err := a.root()
	if err != nil {
		return nil, err
	}
	result, err := config.Load(root, a.lookup, config.Overrides{})
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		a.logger.Logf(terminal.StyleWarning, "Warning: %s", w)
	}
	return result, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the resolved configuration as YAML",
		Long:  "Show the configuration after merging defaults, the config file, and environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.load()
			if err != nil {
				return err
			}
			if result.Path != "" {
				a.logger.Logf(terminal.StyleDim, "Config file: %s", result.Path)
			}
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(result.Config); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newListAgentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-agents",
		Short: "List registered agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.load()
			if err != nil {
				return err
			}
			cfg := result.Config
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tCOMMAND\tMODEL\tDEFAULT")
			for _, id := range cfg.AgentIDs() {
				ac := cfg.Agents[id]
				kind := string(ac.Kind)
				if !ac.Builtin {
					kind += " (custom)"
				}
				def := ""
				if id == cfg.Defaults.Agent {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, kind, ac.Command, ac.Model, def)
			}
			return tw.Flush()
		},
	}
}

func newSetDefaultCmd(a *app) *cobra.Command {
	var agentID, model string
	cmd := &cobra.Command{
		Use:   "set-default",
		Short: "Set the default agent and/or model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agentSet, modelSet := cmd.Flags().Changed("agent"), cmd.Flags().Changed("model")
			if !agentSet && !modelSet {
				return usageErrorf("set-default requires --agent or --model")
			}
			if agentSet && strings.TrimSpace(agentID) == "" {
				return usageErrorf("--agent must not be empty")
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.SetDefault(changed(cmd, "agent", agentID), changed(cmd, "model", model)); err != nil {
				return err
			}
			a.logger.Logf(terminal.StyleSuccess, "Updated defaults in %s", store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "Default agent id")
	cmd.Flags().StringVar(&model, "model", "", "Default model (empty clears it)")
	return cmd
}

func newSetAgentCmd(a *app) *cobra.Command {
	var id, command, model string
	cmd := &cobra.Command{
		Use:   "set-agent",
		Short: "Change the command or model of an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "id"); err != nil {
				return err
			}
			if !cmd.Flags().Changed("command") && !cmd.Flags().Changed("model") {
				return usageErrorf("set-agent requires --command or --model")
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.SetAgent(id, changed(cmd, "command", command), changed(cmd, "model", model)); err != nil {
				return err
			}
			a.logger.Logf(terminal.StyleSuccess, "Updated agent %s in %s", terminal.Bold(id), store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Agent id or built-in key")
	cmd.Flags().StringVar(&command, "command", "", "Executable to invoke")
	cmd.Flags().StringVar(&model, "model", "", "Model passed to the agent")
	return cmd
}

func newAddAgentCmd(a *app) *cobra.Command {
	var (
		id, command, model     string
		maxAttempts, baseDelay int
		agentArgs              []string
	)
	cmd := &cobra.Command{
		Use:   "add-agent",
		Short: "Register a custom CLI agent",
		Long: `Register a custom agent that is invoked as a subprocess.

The prompt is written to the agent's stdin. Each --arg is passed in order;
the placeholder {model} is replaced with the selected model.`,
		Example: `  interpeer add-agent --id local --command ollama-review --model qwen --arg=--model --arg={model}`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "id", "command"); err != nil {
				return err
			}
			spec := config.AgentSpec{
				Command: command,
				Model:   model,
				Args:    agentArgs,
			}
			if cmd.Flags().Changed("max-attempts") {
				spec.MaxAttempts = &maxAttempts
			}
			if cmd.Flags().Changed("base-delay") {
				spec.BaseDelayMs = &baseDelay
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.AddAgent(id, spec); err != nil {
				return err
			}
			a.logger.Logf(terminal.StyleSuccess, "Added agent %s to %s", terminal.Bold(id), store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "New agent id")
	cmd.Flags().StringVar(&command, "command", "", "Executable to invoke")
	cmd.Flags().StringVar(&model, "model", "", "Default model for this agent")
	cmd.Flags().StringArrayVar(&agentArgs, "arg", nil, "Argument template entry (repeatable)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Total attempts per review, including the first")
	cmd.Flags().IntVar(&baseDelay, "base-delay", 0, "Backoff before the second attempt, in milliseconds")
	setGroupedUsage(cmd, addAgentFlagGroups)
	return cmd
}

func newRemoveAgentCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "remove-agent",
		Short: "Remove a custom agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "id"); err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.RemoveAgent(id); err != nil {
				return err
			}
			a.logger.Logf(terminal.StyleSuccess, "Removed agent %s from %s", terminal.Bold(id), store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Agent id to remove")
	return cmd
}

// changed returns &value when the named flag was given on the command line.
func changed(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func requireFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if !cmd.Flags().Changed(name) {
			return usageErrorf("%s requires --%s", cmd.Name(), name)
		}
	}
	return nil
}
