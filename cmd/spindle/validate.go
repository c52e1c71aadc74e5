package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/validator"
	"github.com/aretw0/spindle/pkg/adapters/process"
	"github.com/aretw0/spindle/pkg/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check scripts for consistency",
	Long: `Parses each script and reports unknown nodes, unreachable nodes, unregistered
commands and jump cycles that never reach a line of dialog.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("start")
		commandsPath, _ := cmd.Flags().GetString("commands")

		var reg *registry.Registry
		if commandsPath != "" {
			commands, err := process.LoadCommands(commandsPath)
			if err != nil {
				return err
			}
			reg = process.NewRunner(process.WithCommands(commands)).Install(registry.NewBuilder()).Build()
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			d, err := spindle.LoadFile(path)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				failed++
				continue
			}
			report := validator.Validate(d, validator.Options{Start: start, Commands: reg})
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s: %s\n", path, issue)
			}
			if report.HasErrors() {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d scripts", failed, len(args))
		}
		fmt.Fprintln(out, "Scripts are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("start", spindle.DefaultStartNode, "Node the scripts start from")
	validateCmd.Flags().String("commands", "", "Check commands against this command file")
}
