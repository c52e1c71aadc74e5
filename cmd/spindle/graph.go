package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the dialog graph visualization",
	Long:  `Parses the script and outputs a Mermaid diagram (graph TD) of its jumps and options.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("start")

		d, err := spindle.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(d, start, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("start", spindle.DefaultStartNode, "Node drawn as the entry point")
}
