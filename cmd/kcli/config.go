package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keaz/kcli/pkg/config"
	"github.com/keaz/kcli/pkg/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage broker environments",
	Long: `Without a subcommand, interactively adds an environment to the config
file. Environments are named broker sets; commands connect to the
active one unless --brokers overrides it.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := config.NewStore()
		if err != nil {
			return err
		}

		reader := bufio.NewReader(os.Stdin)
		name, err := prompt(reader, "Environment name")
		if err != nil {
			return err
		}
		brokers, err := prompt(reader, "Brokers (comma separated)")
		if err != nil {
			return err
		}

		env, err := store.Upsert(name, strings.Split(brokers, ","))
		if err != nil {
			return err
		}
		if env.Default {
			fmt.Printf("Environment %s saved and active.\n", env.Name)
		} else {
			fmt.Printf("Environment %s saved. Activate it with 'kcli config active %s'.\n", env.Name, env.Name)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured environments",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := config.NewStore()
		if err != nil {
			return err
		}
		envs, err := store.Load()
		if err != nil {
			return err
		}
		if len(envs) == 0 {
			fmt.Printf("No environments configured in %s. Run 'kcli config' to add one.\n", store.Path())
			return nil
		}
		fmt.Println(output.Environments(envs))
		return nil
	},
}

var configActiveCmd = &cobra.Command{
	Use:   "active [name]",
	Short: "Show or switch the active environment",
	Args:  cobra.MaximumNArgs(1),
	ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return completeEnvironments(toComplete)
	},
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := config.NewStore()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if err := store.Activate(args[0]); err != nil {
				return err
			}
			fmt.Printf("Environment %s is now active.\n", strings.ToLower(strings.TrimSpace(args[0])))
			return nil
		}

		env, err := store.Active()
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", env.Name, strings.Join(env.Brokers, ", "))
		return nil
	},
}

func prompt(reader *bufio.Reader, question string) (string, error) {
	fmt.Printf("%s: ", question)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configActiveCmd)
}
