package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/tickgraph/audio"
	"github.com/lixenwraith/tickgraph/engine"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the node keys the factory resolves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		eng := engine.New(cfg.Engine)
		audio.RegisterNodes(eng.Factory())
		for _, key := range eng.Factory().Keys() {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}
