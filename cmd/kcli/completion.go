package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/keaz/kcli/pkg/config"
	"github.com/keaz/kcli/pkg/kafka"
)

// Shell completion helpers. Broker lookups run against the active
// environment and fail silently, completion is best effort.

func completeTopics(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := brokerConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	topics, err := kafka.ListTopics(cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, topic := range topics {
		if strings.HasPrefix(topic.Name, toComplete) {
			names = append(names, topic.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeGroups(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := brokerConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	groups, err := kafka.ListGroups(cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, group := range groups {
		if strings.HasPrefix(group.GroupID, toComplete) {
			ids = append(ids, group.GroupID)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func completeEnvironments(toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := config.NewStore()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	envs, err := store.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, env := range envs {
		if strings.HasPrefix(env.Name, toComplete) {
			names = append(names, env.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
