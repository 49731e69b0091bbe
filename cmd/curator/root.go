package main

import (
	"fmt"

	"github.com/FranksOps/curator/internal/config"
	"github.com/FranksOps/curator/internal/keywords"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "curator",
		Short:        "Discover trending short videos on a topic and export an engagement report",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		fmt.Sprintf("settings file (JSON/YAML); defaults to %s", config.DefaultFile))

	cmd.AddCommand(newRunCmd(opts), newTopicsCmd(opts))
	return cmd
}

func newTopicsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List configured topics and their search keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			resolver := keywords.NewResolver(cfg.TopicCategories)
			out := cmd.OutOrStdout()
			for _, topic := range resolver.Topics() {
				fmt.Fprintf(out, "%s: %v\n", topic, resolver.Resolve(topic))
			}
			return nil
		},
	}
}
