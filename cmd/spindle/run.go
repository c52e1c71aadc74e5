package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/spindle/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Play a dialog script in the terminal",
	Long: `Plays a script file, or a script id from the library, reading choices from stdin.
Answer with the option number or its target node; "quit" stops the session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("start")
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")
		commands, _ := cmd.Flags().GetString("commands")
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		debug, _ := cmd.Flags().GetBool("debug")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		// Info logs would interleave with the dialog on stderr.
		runLogger := logger
		if !debug && cfg.Log.File == "" {
			runLogger = nil
		}

		return cli.Execute(sigCtx, cli.RunOptions{
			Script:    args[0],
			Library:   cfg.Library,
			Start:     start,
			JSON:      jsonMode,
			Debug:     debug,
			Watch:     watchMode,
			Commands:  commands,
			Redis:     cfg.Redis,
			SessionID: sessionID,
			Fresh:     fresh,
			StepLimit: &cfg.StepLimit,
			Stdin:     cmd.InOrStdin(),
			Stdout:    cmd.OutOrStdout(),
			Logger:    runLogger,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("start", "", "Node to start from (default: the script's start node)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().BoolP("watch", "w", false, "Replay the script whenever the file changes")
	runCmd.Flags().String("commands", "commands.yaml", "File binding script commands to programs")
	runCmd.Flags().String("session", "", "Variable namespace when Redis is configured")
	runCmd.Flags().Bool("fresh", false, "Clear the session's variables before playing")
}
